package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

// Key builds the cache key for one quote bucket. The minute bucket keeps
// keys from the same polling minute identical across callers.
func Key(class domain.AssetClass, symbol, quoteCurrency string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		class,
		strings.ToUpper(strings.TrimSpace(symbol)),
		strings.ToUpper(strings.TrimSpace(quoteCurrency)),
		now.UTC().Format("200601021504"),
	)
}

type entry struct {
	quote     domain.Quote
	expiresAt time.Time
}

// Cache is the freshness cache: a mutex-guarded in-memory map written
// through to a durable store. The durable layer survives restarts but is
// non-authoritative, so store failures are logged and absorbed.
type Cache struct {
	store  domain.QuoteCacheStore
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func New(store domain.QuoteCacheStore, logger *zap.Logger) *Cache {
	return &Cache{
		store:   store,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached quote for key if it has not expired. Expiry is
// checked against the current time before anything is returned.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Quote, bool) {
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if now.Before(e.expiresAt) {
			q := e.quote
			c.mu.Unlock()
			return &q, true
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if c.store == nil {
		return nil, false
	}

	payload, expiresAt, err := c.store.Get(ctx, key, now)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("cache store read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	quote, err := decodeQuote(payload)
	if err != nil {
		c.logger.Warn("cache payload corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	c.mu.Lock()
	c.entries[key] = entry{quote: *quote, expiresAt: expiresAt}
	c.mu.Unlock()
	return quote, true
}

// Put stores quote under key for ttl. Last write wins unconditionally.
func (c *Cache) Put(ctx context.Context, key string, quote domain.Quote, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	expiresAt := c.now().Add(ttl)

	c.mu.Lock()
	c.entries[key] = entry{quote: quote, expiresAt: expiresAt}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	payload, err := encodeQuote(quote)
	if err != nil {
		c.logger.Warn("cache payload encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Put(ctx, key, payload, expiresAt); err != nil {
		c.logger.Warn("cache store write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateExpired removes expired entries from both layers and returns
// how many were dropped. The in-memory check-then-delete runs under the
// entry lock, so a concurrent Put extending a key's life is never removed.
func (c *Cache) InvalidateExpired(ctx context.Context) (int64, error) {
	now := c.now()

	var removed int64
	c.mu.Lock()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if c.store == nil {
		return removed, nil
	}
	storeRemoved, err := c.store.DeleteExpired(ctx, now)
	if err != nil {
		return removed, err
	}
	if storeRemoved > removed {
		removed = storeRemoved
	}
	return removed, nil
}

// RunSweeper expires entries on a fixed interval until ctx is cancelled.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := c.InvalidateExpired(ctx)
			if err != nil {
				c.logger.Warn("cache sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				c.logger.Debug("cache sweep", zap.Int64("removed", removed))
			}
		}
	}
}

type cachedQuote struct {
	Symbol           string           `json:"symbol"`
	AssetClass       string           `json:"asset_class"`
	Price            decimal.Decimal  `json:"price"`
	QuoteCurrency    string           `json:"quote_currency"`
	ChangePercent24h *decimal.Decimal `json:"change_percent_24h,omitempty"`
	FetchedAt        time.Time        `json:"fetched_at"`
	Source           string           `json:"source"`
}

func encodeQuote(q domain.Quote) ([]byte, error) {
	return json.Marshal(cachedQuote{
		Symbol:           q.Symbol,
		AssetClass:       string(q.AssetClass),
		Price:            q.Price,
		QuoteCurrency:    q.QuoteCurrency,
		ChangePercent24h: q.ChangePercent24h,
		FetchedAt:        q.FetchedAt,
		Source:           q.Source,
	})
}

func decodeQuote(payload []byte) (*domain.Quote, error) {
	var cq cachedQuote
	if err := json.Unmarshal(payload, &cq); err != nil {
		return nil, err
	}
	return &domain.Quote{
		Symbol:           cq.Symbol,
		AssetClass:       domain.AssetClass(cq.AssetClass),
		Price:            cq.Price,
		QuoteCurrency:    cq.QuoteCurrency,
		ChangePercent24h: cq.ChangePercent24h,
		FetchedAt:        cq.FetchedAt,
		Source:           cq.Source,
	}, nil
}
