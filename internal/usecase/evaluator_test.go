package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

func newTestEvaluator(alerts *fakeAlertRepo, quotes *fakeQuoteService) *Evaluator {
	return NewEvaluator(alerts, quotes, time.Minute, decimal.NewFromFloat(0.01), zap.NewNop())
}

func mustCreateAlert(t *testing.T, repo *fakeAlertRepo, userID int64, symbol string, target int64, cond domain.AlertCondition) *domain.Alert {
	t.Helper()
	alert := &domain.Alert{
		UserID:      userID,
		AssetClass:  domain.AssetCrypto,
		Symbol:      symbol,
		TargetPrice: decimal.NewFromInt(target),
		Condition:   cond,
		IsActive:    true,
	}
	if err := repo.Create(context.Background(), alert); err != nil {
		t.Fatalf("create alert: %v", err)
	}
	return alert
}

func TestRunCycle_TriggersAboveAlertExactlyOnce(t *testing.T) {
	repo := newFakeAlertRepo()
	quotes := newFakeQuoteService()
	quotes.set("BTC", decimal.NewFromInt(50500))
	alert := mustCreateAlert(t, repo, 42, "BTC", 50000, domain.ConditionAbove)

	e := newTestEvaluator(repo, quotes)
	e.RunCycle(context.Background())

	got := repo.get(alert.ID)
	if got.IsActive {
		t.Fatal("alert must be deactivated after triggering")
	}
	if got.TriggeredAt == nil {
		t.Fatal("triggeredAt must be set")
	}
	notifications := repo.notifications()
	if len(notifications) != 1 {
		t.Fatalf("want exactly 1 notification, got %d", len(notifications))
	}
	if notifications[0].UserID != 42 || notifications[0].Type != domain.NotificationPriceAlert {
		t.Fatalf("unexpected notification: %+v", notifications[0])
	}
	for _, fragment := range []string{"BTC", "above", "50000", "50500"} {
		if !strings.Contains(notifications[0].Message, fragment) {
			t.Fatalf("message %q missing %q", notifications[0].Message, fragment)
		}
	}

	// Re-running the cycle on an already-triggered alert is a no-op.
	e.RunCycle(context.Background())
	if got := repo.notifications(); len(got) != 1 {
		t.Fatalf("idempotence violated: want 1 notification after re-run, got %d", len(got))
	}
}

func TestRunCycle_BelowAndEqualsConditions(t *testing.T) {
	repo := newFakeAlertRepo()
	quotes := newFakeQuoteService()
	quotes.set("ETH", decimal.NewFromInt(2900))
	quotes.set("SOL", decimal.NewFromFloat(100.5))

	below := mustCreateAlert(t, repo, 1, "ETH", 3000, domain.ConditionBelow)
	// 100.5 is within 1% of 100.
	equals := mustCreateAlert(t, repo, 2, "SOL", 100, domain.ConditionEquals)

	e := newTestEvaluator(repo, quotes)
	e.RunCycle(context.Background())

	if repo.get(below.ID).IsActive {
		t.Fatal("below alert must trigger at 2900 < 3000")
	}
	if repo.get(equals.ID).IsActive {
		t.Fatal("equals alert must trigger within 1% of target")
	}
	if got := repo.notifications(); len(got) != 2 {
		t.Fatalf("want 2 notifications, got %d", len(got))
	}
}

func TestRunCycle_NonMatchingAlertStaysActive(t *testing.T) {
	repo := newFakeAlertRepo()
	quotes := newFakeQuoteService()
	quotes.set("BTC", decimal.NewFromInt(49000))
	alert := mustCreateAlert(t, repo, 42, "BTC", 50000, domain.ConditionAbove)

	e := newTestEvaluator(repo, quotes)
	e.RunCycle(context.Background())

	got := repo.get(alert.ID)
	if !got.IsActive || got.TriggeredAt != nil {
		t.Fatalf("non-matching alert must stay active: %+v", got)
	}
	if len(repo.notifications()) != 0 {
		t.Fatal("no notification may be created without a trigger")
	}
}

func TestRunCycle_QuoteFailureSkipsOnlyThatAlert(t *testing.T) {
	repo := newFakeAlertRepo()
	quotes := newFakeQuoteService()
	// DOGE has no price, its lookup fails; BTC still triggers.
	quotes.set("BTC", decimal.NewFromInt(50500))
	failing := mustCreateAlert(t, repo, 1, "DOGE", 1, domain.ConditionAbove)
	healthy := mustCreateAlert(t, repo, 2, "BTC", 50000, domain.ConditionAbove)

	e := newTestEvaluator(repo, quotes)
	e.RunCycle(context.Background())

	if !repo.get(failing.ID).IsActive {
		t.Fatal("alert with failed quote must stay active for the next cycle")
	}
	if repo.get(healthy.ID).IsActive {
		t.Fatal("healthy alert must still be evaluated and triggered")
	}
	if got := repo.notifications(); len(got) != 1 {
		t.Fatalf("want 1 notification, got %d", len(got))
	}
}

func TestRunCycle_CancelledContextStopsBetweenAlerts(t *testing.T) {
	repo := newFakeAlertRepo()
	quotes := newFakeQuoteService()
	quotes.set("BTC", decimal.NewFromInt(50500))
	mustCreateAlert(t, repo, 1, "BTC", 50000, domain.ConditionAbove)
	mustCreateAlert(t, repo, 2, "BTC", 50000, domain.ConditionAbove)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEvaluator(repo, quotes)
	e.RunCycle(ctx)

	if quotes.calls != 0 {
		t.Fatalf("cancelled cycle must not fetch quotes, got %d calls", quotes.calls)
	}
	if len(repo.notifications()) != 0 {
		t.Fatal("cancelled cycle must not write notifications")
	}
}
