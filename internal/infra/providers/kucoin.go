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

var kucoinPairs = map[string]string{
	"BTC": "BTC-USDT", "ETH": "ETH-USDT", "BNB": "BNB-USDT",
	"XRP": "XRP-USDT", "ADA": "ADA-USDT", "SOL": "SOL-USDT",
	"DOT": "DOT-USDT", "DOGE": "DOGE-USDT", "AVAX": "AVAX-USDT",
	"MATIC": "MATIC-USDT", "LTC": "LTC-USDT", "BCH": "BCH-USDT",
	"UNI": "UNI-USDT", "LINK": "LINK-USDT", "ATOM": "ATOM-USDT",
	"XLM": "XLM-USDT", "VET": "VET-USDT", "FIL": "FIL-USDT",
	"TRX": "TRX-USDT", "ETC": "ETC-USDT", "SHIB": "SHIB-USDT",
}

// Kucoin fetches crypto quotes from the KuCoin level-1 order book endpoint.
type Kucoin struct {
	baseURL string
	client  *client
}

func NewKucoin(baseURL string, timeout time.Duration, logger *zap.Logger) *Kucoin {
	if baseURL == "" {
		baseURL = "https://api.kucoin.com"
	}
	return &Kucoin{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(timeout, logger),
	}
}

func (k *Kucoin) Name() string { return "kucoin" }

func (k *Kucoin) Fetch(ctx context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	pair, ok := kucoinPairs[symbol]
	if !ok {
		return nil, unsupported(k.Name(), symbol)
	}
	if quoteCurrency != "USD" && quoteCurrency != "USDT" {
		return nil, unsupported(k.Name(), symbol+"/"+quoteCurrency)
	}

	endpoint := fmt.Sprintf("%s/api/v1/market/orderbook/level1?symbol=%s", k.baseURL, url.QueryEscape(pair))
	var payload struct {
		Code string `json:"code"`
		Data struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	if err := k.client.getJSON(ctx, k.Name(), endpoint, nil, &payload); err != nil {
		return nil, err
	}
	// "200000" is KuCoin's success code.
	if payload.Code != "200000" {
		return nil, fmt.Errorf("%w: kucoin code %s", domain.ErrUpstream, payload.Code)
	}

	price, err := decimal.NewFromString(payload.Data.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: kucoin price %q", domain.ErrUpstream, payload.Data.Price)
	}

	return &domain.Quote{
		Symbol:        symbol,
		AssetClass:    domain.AssetCrypto,
		Price:         price,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        k.Name(),
	}, nil
}
