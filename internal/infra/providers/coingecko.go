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

var coingeckoIDs = map[string]string{
	"BTC": "bitcoin", "ETH": "ethereum", "BNB": "binancecoin",
	"XRP": "ripple", "ADA": "cardano", "SOL": "solana",
	"DOT": "polkadot", "DOGE": "dogecoin", "AVAX": "avalanche-2",
	"MATIC": "matic-network", "LTC": "litecoin", "BCH": "bitcoin-cash",
	"UNI": "uniswap", "LINK": "chainlink", "ATOM": "cosmos",
	"XLM": "stellar", "VET": "vechain", "FIL": "filecoin",
	"TRX": "tron", "ETC": "ethereum-classic", "SHIB": "shiba-inu",
}

var coingeckoCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {}, "IRR": {},
}

// Coingecko fetches crypto quotes from the CoinGecko simple price endpoint.
// Unlike the exchange adapters it can quote in several fiat currencies.
type Coingecko struct {
	baseURL string
	client  *client
}

func NewCoingecko(baseURL string, timeout time.Duration, logger *zap.Logger) *Coingecko {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com"
	}
	return &Coingecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(timeout, logger),
	}
}

func (c *Coingecko) Name() string { return "coingecko" }

func (c *Coingecko) Fetch(ctx context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	coinID, ok := coingeckoIDs[symbol]
	if !ok {
		return nil, unsupported(c.Name(), symbol)
	}
	if _, ok := coingeckoCurrencies[quoteCurrency]; !ok {
		return nil, unsupported(c.Name(), symbol+"/"+quoteCurrency)
	}
	vs := strings.ToLower(quoteCurrency)

	endpoint := fmt.Sprintf(
		"%s/api/v3/simple/price?ids=%s&vs_currencies=%s&include_24hr_change=true",
		c.baseURL, url.QueryEscape(coinID), vs,
	)

	var payload map[string]map[string]decimal.Decimal
	if err := c.client.getJSON(ctx, c.Name(), endpoint, nil, &payload); err != nil {
		return nil, err
	}

	fields, ok := payload[coinID]
	if !ok {
		return nil, fmt.Errorf("%w: coingecko missing %s", domain.ErrUpstream, coinID)
	}
	price, ok := fields[vs]
	if !ok {
		return nil, fmt.Errorf("%w: coingecko missing %s price for %s", domain.ErrUpstream, vs, coinID)
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		AssetClass:    domain.AssetCrypto,
		Price:         price,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        c.Name(),
	}
	if change, ok := fields[vs+"_24h_change"]; ok {
		quote.ChangePercent24h = &change
	}
	return quote, nil
}
