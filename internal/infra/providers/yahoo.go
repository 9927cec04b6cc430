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

// commodityFutures maps commodity names to their front-month futures
// tickers, shared by the Yahoo and AlphaVantage commodity adapters.
var commodityFutures = map[string]string{
	"GOLD":   "GC=F",
	"SILVER": "SI=F",
	"OIL":    "CL=F",
	"GAS":    "NG=F",
	"COPPER": "HG=F",
	"WHEAT":  "ZW=F",
}

// Yahoo fetches quotes from the Yahoo Finance chart endpoint. The same
// adapter serves stocks (tickers pass through) and commodities (names map
// to futures tickers).
type Yahoo struct {
	baseURL string
	class   domain.AssetClass
	client  *client
}

func NewYahooStocks(baseURL string, timeout time.Duration, logger *zap.Logger) *Yahoo {
	return newYahoo(baseURL, domain.AssetStock, timeout, logger)
}

func NewYahooCommodities(baseURL string, timeout time.Duration, logger *zap.Logger) *Yahoo {
	return newYahoo(baseURL, domain.AssetCommodity, timeout, logger)
}

func newYahoo(baseURL string, class domain.AssetClass, timeout time.Duration, logger *zap.Logger) *Yahoo {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &Yahoo{
		baseURL: strings.TrimRight(baseURL, "/"),
		class:   class,
		client:  newClient(timeout, logger),
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) Fetch(ctx context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	ticker := symbol
	if y.class == domain.AssetCommodity {
		mapped, ok := commodityFutures[symbol]
		if !ok {
			return nil, unsupported(y.Name(), symbol)
		}
		ticker = mapped
	}
	if !tickerRe.MatchString(ticker) {
		return nil, unsupported(y.Name(), symbol)
	}
	if quoteCurrency != "USD" {
		return nil, unsupported(y.Name(), symbol+"/"+quoteCurrency)
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1m", y.baseURL, url.PathEscape(ticker))
	var payload struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice *decimal.Decimal `json:"regularMarketPrice"`
					ChartPreviousClose *decimal.Decimal `json:"chartPreviousClose"`
					Currency           string           `json:"currency"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := y.client.getJSON(ctx, y.Name(), endpoint, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Chart.Result) == 0 || payload.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("%w: yahoo chart empty for %s", domain.ErrUpstream, ticker)
	}

	meta := payload.Chart.Result[0].Meta
	quote := &domain.Quote{
		Symbol:        symbol,
		AssetClass:    y.class,
		Price:         *meta.RegularMarketPrice,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        y.Name(),
	}
	if meta.ChartPreviousClose != nil && !meta.ChartPreviousClose.IsZero() {
		change := meta.RegularMarketPrice.Sub(*meta.ChartPreviousClose).
			Div(*meta.ChartPreviousClose).
			Mul(decimal.NewFromInt(100))
		quote.ChangePercent24h = &change
	}
	return quote, nil
}
