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

// binancePairs maps symbols to Binance USDT trading pairs.
var binancePairs = map[string]string{
	"BTC": "BTCUSDT", "ETH": "ETHUSDT", "BNB": "BNBUSDT",
	"XRP": "XRPUSDT", "ADA": "ADAUSDT", "SOL": "SOLUSDT",
	"DOT": "DOTUSDT", "DOGE": "DOGEUSDT", "AVAX": "AVAXUSDT",
	"MATIC": "MATICUSDT", "LTC": "LTCUSDT", "BCH": "BCHUSDT",
	"UNI": "UNIUSDT", "LINK": "LINKUSDT", "ATOM": "ATOMUSDT",
	"XLM": "XLMUSDT", "VET": "VETUSDT", "FIL": "FILUSDT",
	"TRX": "TRXUSDT", "ETC": "ETCUSDT", "SHIB": "SHIBUSDT",
}

// Binance fetches crypto quotes from the Binance 24h ticker endpoint.
// USDT pairs are reported as USD.
type Binance struct {
	baseURL string
	client  *client
}

func NewBinance(baseURL string, timeout time.Duration, logger *zap.Logger) *Binance {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &Binance{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(timeout, logger),
	}
}

func (b *Binance) Name() string { return "binance" }

func (b *Binance) Fetch(ctx context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	pair, ok := binancePairs[symbol]
	if !ok {
		return nil, unsupported(b.Name(), symbol)
	}
	if quoteCurrency != "USD" && quoteCurrency != "USDT" {
		return nil, unsupported(b.Name(), symbol+"/"+quoteCurrency)
	}

	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", b.baseURL, url.QueryEscape(pair))
	var payload struct {
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
	}
	if err := b.client.getJSON(ctx, b.Name(), endpoint, nil, &payload); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(payload.LastPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: binance price %q", domain.ErrUpstream, payload.LastPrice)
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		AssetClass:    domain.AssetCrypto,
		Price:         price,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        b.Name(),
	}
	if change, err := decimal.NewFromString(payload.PriceChangePercent); err == nil {
		quote.ChangePercent24h = &change
	}
	return quote, nil
}
