package quote

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/cache"
	"github.com/tabdila/pricewatch/internal/domain"
)

// TTLs holds the cache lifetime per asset class. Fast-moving classes get
// shorter lifetimes.
type TTLs struct {
	Crypto    time.Duration
	Stock     time.Duration
	Commodity time.Duration
	Currency  time.Duration
}

func (t TTLs) For(class domain.AssetClass) time.Duration {
	switch class {
	case domain.AssetCrypto:
		return t.Crypto
	case domain.AssetStock:
		return t.Stock
	case domain.AssetCommodity:
		return t.Commodity
	case domain.AssetCurrency:
		return t.Currency
	default:
		return t.Currency
	}
}

// Orchestrator serves quotes from the freshness cache and falls back to a
// static, per-asset-class ordered list of source adapters. Adapters are
// tried in sequence; the first success wins and is cached. The order is
// fixed configuration, never re-ranked at runtime.
type Orchestrator struct {
	adapters map[domain.AssetClass][]domain.SourceAdapter
	cache    *cache.Cache
	ttls     TTLs
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrchestrator(quoteCache *cache.Cache, ttls TTLs, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		adapters: make(map[domain.AssetClass][]domain.SourceAdapter),
		cache:    quoteCache,
		ttls:     ttls,
		logger:   logger,
		now:      time.Now,
	}
}

// Register appends adapters to the fallback chain for class, in priority
// order.
func (o *Orchestrator) Register(class domain.AssetClass, adapters ...domain.SourceAdapter) {
	o.adapters[class] = append(o.adapters[class], adapters...)
}

// GetQuote returns a cached or freshly fetched quote. When every adapter
// fails the returned error is a *domain.AllSourcesFailedError carrying all
// per-adapter errors; partial data is never returned and nothing is cached.
func (o *Orchestrator) GetQuote(ctx context.Context, class domain.AssetClass, symbol, quoteCurrency string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	quoteCurrency = strings.ToUpper(strings.TrimSpace(quoteCurrency))

	key := cache.Key(class, symbol, quoteCurrency, o.now())
	if q, ok := o.cache.Get(ctx, key); ok {
		return q, nil
	}

	failures := make([]domain.SourceError, 0, len(o.adapters[class]))
	for _, adapter := range o.adapters[class] {
		q, err := adapter.Fetch(ctx, symbol, quoteCurrency)
		if err != nil {
			o.logger.Warn("quote source failed",
				zap.String("source", adapter.Name()),
				zap.String("asset_class", string(class)),
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			failures = append(failures, domain.SourceError{Source: adapter.Name(), Err: err})
			continue
		}
		o.cache.Put(ctx, key, *q, o.ttls.For(class))
		return q, nil
	}

	return nil, &domain.AllSourcesFailedError{AssetClass: class, Symbol: symbol, Errors: failures}
}
