package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

// AlphaVantage fetches quotes from the Alpha Vantage GLOBAL_QUOTE function.
// It needs an API key and is only registered when one is configured.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	class   domain.AssetClass
	client  *client
}

func NewAlphaVantageStocks(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *AlphaVantage {
	return newAlphaVantage(baseURL, apiKey, domain.AssetStock, timeout, logger)
}

func NewAlphaVantageCommodities(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *AlphaVantage {
	return newAlphaVantage(baseURL, apiKey, domain.AssetCommodity, timeout, logger)
}

func newAlphaVantage(baseURL, apiKey string, class domain.AssetClass, timeout time.Duration, logger *zap.Logger) *AlphaVantage {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &AlphaVantage{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		class:   class,
		client:  newClient(timeout, logger),
	}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

func (a *AlphaVantage) Fetch(ctx context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	ticker := symbol
	if a.class == domain.AssetCommodity {
		mapped, ok := commodityFutures[symbol]
		if !ok {
			return nil, unsupported(a.Name(), symbol)
		}
		ticker = mapped
	}
	if !tickerRe.MatchString(ticker) {
		return nil, unsupported(a.Name(), symbol)
	}
	if quoteCurrency != "USD" {
		return nil, unsupported(a.Name(), symbol+"/"+quoteCurrency)
	}

	endpoint := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		a.baseURL, url.QueryEscape(ticker), url.QueryEscape(a.apiKey))
	var payload struct {
		GlobalQuote struct {
			Price         string `json:"05. price"`
			ChangePercent string `json:"10. change percent"`
		} `json:"Global Quote"`
	}
	if err := a.client.getJSON(ctx, a.Name(), endpoint, nil, &payload); err != nil {
		return nil, err
	}
	if payload.GlobalQuote.Price == "" {
		return nil, fmt.Errorf("%w: alphavantage empty quote for %s", domain.ErrUpstream, ticker)
	}

	price, err := decimal.NewFromString(payload.GlobalQuote.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: alphavantage price %q", domain.ErrUpstream, payload.GlobalQuote.Price)
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		AssetClass:    a.class,
		Price:         price,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        a.Name(),
	}
	raw := strings.TrimSuffix(strings.TrimSpace(payload.GlobalQuote.ChangePercent), "%")
	if change, err := decimal.NewFromString(raw); err == nil {
		quote.ChangePercent24h = &change
	}
	return quote, nil
}
