package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/cache"
	"github.com/tabdila/pricewatch/internal/domain"
)

// BinanceStream keeps the freshness cache warm for a fixed set of popular
// crypto symbols by following the Binance combined miniTicker stream. It is
// purely an optimization: alert correctness never depends on it, and any
// failure just means the orchestrator fetches over HTTP instead.
type BinanceStream struct {
	url         string
	symbols     []string
	cache       *cache.Cache
	ttl         time.Duration
	dialer      *websocket.Dialer
	readTimeout time.Duration
	logger      *zap.Logger
}

func NewBinanceStream(wsURL string, symbols []string, quoteCache *cache.Cache, ttl, readTimeout time.Duration, logger *zap.Logger) *BinanceStream {
	if wsURL == "" {
		wsURL = "wss://stream.binance.com:9443"
	}
	return &BinanceStream{
		url:     strings.TrimRight(wsURL, "/"),
		symbols: symbols,
		cache:   quoteCache,
		ttl:     ttl,
		dialer: &websocket.Dialer{
			Proxy: http.ProxyFromEnvironment,
		},
		readTimeout: readTimeout,
		logger:      logger,
	}
}

// Run follows the stream until ctx is cancelled, reconnecting with a flat
// backoff after any failure.
func (s *BinanceStream) Run(ctx context.Context) error {
	streams := s.streamNames()
	if len(streams) == 0 {
		s.logger.Info("binance stream disabled: no mapped symbols")
		return nil
	}
	endpoint := fmt.Sprintf("%s/stream?streams=%s", s.url, strings.Join(streams, "/"))

	for {
		if err := s.streamOnce(ctx, endpoint); err != nil {
			s.logger.Warn("binance stream interrupted", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *BinanceStream) streamOnce(ctx context.Context, endpoint string) error {
	s.logger.Info("binance stream connect", zap.String("url", endpoint))
	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// The watcher unblocks ReadMessage on cancellation and must itself exit
	// when this connection is done, or every reconnect would strand one.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	pairToSymbol := make(map[string]string, len(binancePairs))
	for symbol, pair := range binancePairs {
		pairToSymbol[pair] = symbol
	}

	for {
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		quote, err := decodeMiniTicker(data, pairToSymbol)
		if err != nil {
			s.logger.Debug("binance stream message ignored", zap.Error(err))
			continue
		}
		if quote == nil {
			continue
		}

		key := cache.Key(quote.AssetClass, quote.Symbol, quote.QuoteCurrency, quote.FetchedAt)
		s.cache.Put(ctx, key, *quote, s.ttl)
	}
}

func (s *BinanceStream) streamNames() []string {
	names := make([]string, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		pair, ok := binancePairs[strings.ToUpper(strings.TrimSpace(symbol))]
		if !ok {
			s.logger.Warn("binance stream skipping unmapped symbol", zap.String("symbol", symbol))
			continue
		}
		names = append(names, strings.ToLower(pair)+"@miniTicker")
	}
	return names
}

type miniTickerEvent struct {
	Stream string `json:"stream"`
	Data   struct {
		EventType string `json:"e"`
		Pair      string `json:"s"`
		Close     string `json:"c"`
		Open      string `json:"o"`
	} `json:"data"`
}

func decodeMiniTicker(data []byte, pairToSymbol map[string]string) (*domain.Quote, error) {
	var event miniTickerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode stream message: %w", err)
	}
	if event.Data.EventType != "24hrMiniTicker" {
		return nil, nil
	}

	symbol, ok := pairToSymbol[event.Data.Pair]
	if !ok {
		return nil, nil
	}
	price, err := decimal.NewFromString(event.Data.Close)
	if err != nil {
		return nil, fmt.Errorf("mini ticker price %q: %w", event.Data.Close, err)
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		AssetClass:    domain.AssetCrypto,
		Price:         price,
		QuoteCurrency: "USD",
		FetchedAt:     time.Now().UTC(),
		Source:        "binance_stream",
	}
	if open, err := decimal.NewFromString(event.Data.Open); err == nil && !open.IsZero() {
		change := price.Sub(open).Div(open).Mul(decimal.NewFromInt(100))
		quote.ChangePercent24h = &change
	}
	return quote, nil
}
