package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/cache"
	"github.com/tabdila/pricewatch/internal/domain"
)

type fakeAdapter struct {
	name  string
	price decimal.Decimal
	err   error
	calls int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(_ context.Context, symbol, quoteCurrency string) (*domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Quote{
		Symbol:        symbol,
		AssetClass:    domain.AssetCrypto,
		Price:         f.price,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        f.name,
	}, nil
}

func testTTLs() TTLs {
	return TTLs{Crypto: 2 * time.Minute, Stock: 5 * time.Minute, Commodity: 10 * time.Minute, Currency: 5 * time.Minute}
}

func newTestOrchestrator(adapters ...domain.SourceAdapter) *Orchestrator {
	o := NewOrchestrator(cache.New(nil, zap.NewNop()), testTTLs(), zap.NewNop())
	// Pin the clock so both lookups in a test share one cache key bucket.
	fixed := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	o.now = func() time.Time { return fixed }
	o.Register(domain.AssetCrypto, adapters...)
	return o
}

func TestGetQuote_FirstSuccessWins(t *testing.T) {
	first := &fakeAdapter{name: "first", price: decimal.NewFromInt(100)}
	second := &fakeAdapter{name: "second", price: decimal.NewFromInt(200)}
	o := newTestOrchestrator(first, second)

	got, err := o.GetQuote(context.Background(), domain.AssetCrypto, "BTC", "USD")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if got.Source != "first" || !got.Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected quote: %+v", got)
	}
	if second.calls != 0 {
		t.Fatalf("second adapter must not be called after a success, got %d calls", second.calls)
	}
}

func TestGetQuote_FallsBackInOrder(t *testing.T) {
	first := &fakeAdapter{name: "first", err: domain.ErrProviderTimeout}
	second := &fakeAdapter{name: "second", err: domain.ErrUnsupportedSymbol}
	third := &fakeAdapter{name: "third", price: decimal.NewFromInt(300)}
	o := newTestOrchestrator(first, second, third)

	got, err := o.GetQuote(context.Background(), domain.AssetCrypto, "BTC", "USD")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if got.Source != "third" {
		t.Fatalf("want quote from third adapter, got %q", got.Source)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Fatalf("want each adapter tried once, got %d/%d/%d", first.calls, second.calls, third.calls)
	}
}

func TestGetQuote_AllSourcesFailed(t *testing.T) {
	adapters := []*fakeAdapter{
		{name: "a", err: domain.ErrProviderTimeout},
		{name: "b", err: domain.ErrProviderTimeout},
		{name: "c", err: domain.ErrProviderTimeout},
	}
	o := newTestOrchestrator(adapters[0], adapters[1], adapters[2])

	_, err := o.GetQuote(context.Background(), domain.AssetCrypto, "ETH", "USD")
	var allFailed *domain.AllSourcesFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("want AllSourcesFailedError, got %v", err)
	}
	if len(allFailed.Errors) != 3 {
		t.Fatalf("want 3 aggregated errors, got %d", len(allFailed.Errors))
	}
	if allFailed.Symbol != "ETH" {
		t.Fatalf("unexpected symbol: %q", allFailed.Symbol)
	}

	// Nothing was cached: a second lookup hits every adapter again.
	_, _ = o.GetQuote(context.Background(), domain.AssetCrypto, "ETH", "USD")
	for _, a := range adapters {
		if a.calls != 2 {
			t.Fatalf("adapter %s: want 2 calls, got %d", a.name, a.calls)
		}
	}
}

func TestGetQuote_CacheHitSkipsAdapters(t *testing.T) {
	adapter := &fakeAdapter{name: "only", price: decimal.NewFromInt(42)}
	o := newTestOrchestrator(adapter)

	if _, err := o.GetQuote(context.Background(), domain.AssetCrypto, "BTC", "USD"); err != nil {
		t.Fatalf("first GetQuote: %v", err)
	}
	if _, err := o.GetQuote(context.Background(), domain.AssetCrypto, "BTC", "USD"); err != nil {
		t.Fatalf("second GetQuote: %v", err)
	}
	if adapter.calls != 1 {
		t.Fatalf("second lookup must come from cache, got %d adapter calls", adapter.calls)
	}
}

func TestGetQuote_NormalizesSymbolAndCurrency(t *testing.T) {
	adapter := &fakeAdapter{name: "only", price: decimal.NewFromInt(42)}
	o := newTestOrchestrator(adapter)

	if _, err := o.GetQuote(context.Background(), domain.AssetCrypto, " btc ", "usd"); err != nil {
		t.Fatalf("first GetQuote: %v", err)
	}
	if _, err := o.GetQuote(context.Background(), domain.AssetCrypto, "BTC", "USD"); err != nil {
		t.Fatalf("second GetQuote: %v", err)
	}
	if adapter.calls != 1 {
		t.Fatalf("normalized lookups must share a cache entry, got %d calls", adapter.calls)
	}
}

func TestGetQuote_NoAdaptersForClass(t *testing.T) {
	o := NewOrchestrator(cache.New(nil, zap.NewNop()), testTTLs(), zap.NewNop())

	_, err := o.GetQuote(context.Background(), domain.AssetStock, "AAPL", "USD")
	var allFailed *domain.AllSourcesFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("want AllSourcesFailedError, got %v", err)
	}
	if len(allFailed.Errors) != 0 {
		t.Fatalf("want empty error list, got %d", len(allFailed.Errors))
	}
}
