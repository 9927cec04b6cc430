package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

// Finnhub fetches stock quotes from the Finnhub quote endpoint. Keyed, so
// only registered when configured.
type Finnhub struct {
	baseURL string
	apiKey  string
	client  *client
}

func NewFinnhub(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Finnhub {
	if baseURL == "" {
		baseURL = "https://finnhub.io"
	}
	return &Finnhub{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newClient(timeout, logger),
	}
}

func (f *Finnhub) Name() string { return "finnhub" }

func (f *Finnhub) Fetch(ctx context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	if !tickerRe.MatchString(symbol) {
		return nil, unsupported(f.Name(), symbol)
	}
	if quoteCurrency != "USD" {
		return nil, unsupported(f.Name(), symbol+"/"+quoteCurrency)
	}

	// The key travels as a header; the shared client logs full URLs.
	endpoint := fmt.Sprintf("%s/api/v1/quote?symbol=%s", f.baseURL, url.QueryEscape(symbol))
	headers := http.Header{"X-Finnhub-Token": []string{f.apiKey}}
	var payload struct {
		Current       decimal.Decimal `json:"c"`
		ChangePercent decimal.Decimal `json:"dp"`
	}
	if err := f.client.getJSON(ctx, f.Name(), endpoint, headers, &payload); err != nil {
		return nil, err
	}
	// Finnhub answers unknown tickers with all-zero quotes.
	if payload.Current.IsZero() {
		return nil, fmt.Errorf("%w: finnhub empty quote for %s", domain.ErrUpstream, symbol)
	}

	change := payload.ChangePercent
	return &domain.Quote{
		Symbol:           symbol,
		AssetClass:       domain.AssetStock,
		Price:            payload.Current,
		QuoteCurrency:    quoteCurrency,
		ChangePercent24h: &change,
		FetchedAt:        time.Now().UTC(),
		Source:           f.Name(),
	}, nil
}
