package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tabdila/pricewatch/internal/domain"
)

type fakeAlertRepo struct {
	mu      sync.Mutex
	nextID  uint
	alerts  map[uint]*domain.Alert
	created []domain.Notification
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[uint]*domain.Alert)}
}

func (f *fakeAlertRepo) Create(_ context.Context, alert *domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	alert.ID = f.nextID
	alert.CreatedAt = time.Now().UTC()
	copied := *alert
	f.alerts[alert.ID] = &copied
	return nil
}

func (f *fakeAlertRepo) ListByUser(_ context.Context, userID int64) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Alert
	for id := uint(1); id <= f.nextID; id++ {
		if a, ok := f.alerts[id]; ok && a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) ListActive(_ context.Context) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Alert
	for id := uint(1); id <= f.nextID; id++ {
		if a, ok := f.alerts[id]; ok && a.IsActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlertRepo) CountActiveByUser(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, a := range f.alerts {
		if a.UserID == userID && a.IsActive {
			count++
		}
	}
	return count, nil
}

func (f *fakeAlertRepo) Cancel(_ context.Context, userID int64, alertID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[alertID]
	if !ok || a.UserID != userID || !a.IsActive {
		return domain.ErrNotFound
	}
	a.IsActive = false
	return nil
}

func (f *fakeAlertRepo) Trigger(_ context.Context, alertID uint, triggeredAt time.Time, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[alertID]
	if !ok || !a.IsActive {
		return domain.ErrAlreadyTriggered
	}
	a.IsActive = false
	at := triggeredAt
	a.TriggeredAt = &at
	notification.ID = uint(len(f.created) + 1)
	notification.CreatedAt = triggeredAt
	f.created = append(f.created, *notification)
	return nil
}

func (f *fakeAlertRepo) get(alertID uint) domain.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.alerts[alertID]
}

func (f *fakeAlertRepo) notifications() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Notification, len(f.created))
	copy(out, f.created)
	return out
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: make(map[uint]*domain.Notification)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	notification.ID = f.nextID
	notification.CreatedAt = time.Now().UTC()
	copied := *notification
	f.rows[notification.ID] = &copied
	return nil
}

func (f *fakeNotificationRepo) ListPending(_ context.Context, now time.Time, limit int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for id := uint(1); id <= f.nextID; id++ {
		n, ok := f.rows[id]
		if !ok || n.IsSent {
			continue
		}
		if n.ScheduledTime != nil && n.ScheduledTime.After(now) {
			continue
		}
		out = append(out, *n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkSent(_ context.Context, notificationID uint, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[notificationID]
	if !ok || n.IsSent {
		return domain.ErrNotFound
	}
	n.IsSent = true
	at := sentAt
	n.SentAt = &at
	return nil
}

func (f *fakeNotificationRepo) get(id uint) domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.rows[id]
}

// fakeQuoteService answers by symbol; symbols without a price fail with an
// AllSourcesFailedError like the real orchestrator.
type fakeQuoteService struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	calls  int
}

func newFakeQuoteService() *fakeQuoteService {
	return &fakeQuoteService{prices: make(map[string]decimal.Decimal)}
}

func (f *fakeQuoteService) set(symbol string, price decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
}

func (f *fakeQuoteService) GetQuote(_ context.Context, class domain.AssetClass, symbol, quoteCurrency string) (*domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	price, ok := f.prices[symbol]
	if !ok {
		return nil, &domain.AllSourcesFailedError{
			AssetClass: class,
			Symbol:     symbol,
			Errors:     []domain.SourceError{{Source: "fake", Err: domain.ErrProviderTimeout}},
		}
	}
	return &domain.Quote{
		Symbol:        symbol,
		AssetClass:    class,
		Price:         price,
		QuoteCurrency: quoteCurrency,
		FetchedAt:     time.Now().UTC(),
		Source:        "fake",
	}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeNotifier) Notify(userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("send failed for user %d", userID)
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}
