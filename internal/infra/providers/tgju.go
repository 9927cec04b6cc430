package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

// tgjuMarkets maps currency symbols to tgju.org market row identifiers.
var tgjuMarkets = map[string]string{
	"USD": "price_dollar_rl",
	"EUR": "price_eur",
	"GBP": "price_gbp",
	"AED": "price_aed",
	"TRY": "price_try",
}

// Tgju scrapes rial quotes from the tgju.org front page. This is the one
// HTML adapter; everything it parses is a data attribute on the market row.
type Tgju struct {
	baseURL string
	client  *client
}

func NewTgju(baseURL string, timeout time.Duration, logger *zap.Logger) *Tgju {
	if baseURL == "" {
		baseURL = "https://www.tgju.org"
	}
	return &Tgju{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(timeout, logger),
	}
}

func (t *Tgju) Name() string { return "tgju" }

func (t *Tgju) Fetch(ctx context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	market, ok := tgjuMarkets[symbol]
	if !ok {
		return nil, unsupported(t.Name(), symbol)
	}
	if quoteCurrency != "IRR" {
		return nil, unsupported(t.Name(), symbol+"/"+quoteCurrency)
	}

	body, err := t.client.getBody(ctx, t.Name(), t.baseURL+"/", nil)
	if err != nil {
		return nil, err
	}

	price, err := extractTgjuPrice(body, market)
	if err != nil {
		return nil, err
	}

	return &domain.Quote{
		Symbol:        symbol,
		AssetClass:    domain.AssetCurrency,
		Price:         price,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        t.Name(),
	}, nil
}

func extractTgjuPrice(body []byte, market string) (decimal.Decimal, error) {
	// Market rows look like:
	//   <tr data-market-row="price_dollar_rl" data-price="1,081,400" ...>
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: tgju parse: %v", domain.ErrUpstream, err)
	}

	raw, ok := doc.Find(fmt.Sprintf(`tr[data-market-row=%q]`, market)).First().Attr("data-price")
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: tgju row %s not found", domain.ErrUpstream, market)
	}

	price, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: tgju price %q", domain.ErrUpstream, raw)
	}
	return price, nil
}
