package providers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// ExchangeRate fetches fiat conversion rates from exchangerate.host. The
// quote for a currency pair is the rate for one unit of the base symbol.
type ExchangeRate struct {
	baseURL string
	apiKey  string
	client  *client
}

func NewExchangeRate(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *ExchangeRate {
	if baseURL == "" {
		baseURL = "https://api.exchangerate.host"
	}
	return &ExchangeRate{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  newClient(timeout, logger),
	}
}

func (e *ExchangeRate) Name() string { return "exchangerate" }

func (e *ExchangeRate) Fetch(ctx context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	if !currencyCodeRe.MatchString(symbol) || !currencyCodeRe.MatchString(quoteCurrency) {
		return nil, unsupported(e.Name(), symbol+"/"+quoteCurrency)
	}

	endpoint := fmt.Sprintf("%s/convert?from=%s&to=%s&amount=1",
		e.baseURL, url.QueryEscape(symbol), url.QueryEscape(quoteCurrency))
	if e.apiKey != "" {
		endpoint += "&access_key=" + url.QueryEscape(e.apiKey)
	}

	var payload struct {
		Success bool             `json:"success"`
		Result  *decimal.Decimal `json:"result"`
	}
	if err := e.client.getJSON(ctx, e.Name(), endpoint, nil, &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Result == nil {
		return nil, fmt.Errorf("%w: exchangerate no result for %s/%s", domain.ErrUpstream, symbol, quoteCurrency)
	}

	return &domain.Quote{
		Symbol:        symbol,
		AssetClass:    domain.AssetCurrency,
		Price:         *payload.Result,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        e.Name(),
	}, nil
}
