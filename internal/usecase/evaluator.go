package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

// Evaluator re-checks every active alert against a fresh-or-cached quote on
// a fixed interval. Triggering goes through AlertRepository.Trigger, whose
// conditional transaction guarantees at most one notification per alert no
// matter how often a cycle re-sees the same condition.
type Evaluator struct {
	alerts    domain.AlertRepository
	quotes    QuoteService
	interval  time.Duration
	tolerance decimal.Decimal
	logger    *zap.Logger
	now       func() time.Time
}

func NewEvaluator(alerts domain.AlertRepository, quotes QuoteService, interval time.Duration, tolerance decimal.Decimal, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		alerts:    alerts,
		quotes:    quotes,
		interval:  interval,
		tolerance: tolerance,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes evaluation cycles until ctx is cancelled. A cycle in flight
// finishes its current alert before the loop exits; no write is left
// half-applied.
func (e *Evaluator) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle performs one evaluation pass. A quote failure for one alert
// skips only that alert; the rest of the batch still runs.
func (e *Evaluator) RunCycle(ctx context.Context) {
	alerts, err := e.alerts.ListActive(ctx)
	if err != nil {
		e.logger.Error("failed to load active alerts", zap.Error(err))
		return
	}

	for _, alert := range alerts {
		if ctx.Err() != nil {
			return
		}
		e.evaluate(ctx, alert)
	}
}

func (e *Evaluator) evaluate(ctx context.Context, alert domain.Alert) {
	quote, err := e.quotes.GetQuote(ctx, alert.AssetClass, alert.Symbol, "USD")
	if err != nil {
		e.logger.Warn("skipping alert: quote unavailable",
			zap.Uint("alert_id", alert.ID),
			zap.String("symbol", alert.Symbol),
			zap.Error(err),
		)
		return
	}

	if !alert.Matches(quote.Price, e.tolerance) {
		return
	}

	triggeredAt := e.now().UTC()
	notification := &domain.Notification{
		UserID:  alert.UserID,
		Type:    domain.NotificationPriceAlert,
		Message: alertMessage(alert, quote, triggeredAt),
	}
	if err := e.alerts.Trigger(ctx, alert.ID, triggeredAt, notification); err != nil {
		if errors.Is(err, domain.ErrAlreadyTriggered) {
			e.logger.Debug("alert already triggered", zap.Uint("alert_id", alert.ID))
			return
		}
		e.logger.Error("failed to trigger alert", zap.Uint("alert_id", alert.ID), zap.Error(err))
		return
	}

	e.logger.Info("alert triggered",
		zap.Uint("alert_id", alert.ID),
		zap.Int64("user_id", alert.UserID),
		zap.String("symbol", alert.Symbol),
		zap.String("price", quote.Price.String()),
	)
}

func alertMessage(alert domain.Alert, quote *domain.Quote, at time.Time) string {
	return fmt.Sprintf("Alert #%d triggered: %s %s %s (current price %s %s at %s)",
		alert.ID,
		alert.Symbol,
		alert.Condition,
		alert.TargetPrice.String(),
		quote.Price.String(),
		quote.QuoteCurrency,
		at.Format("2006-01-02 15:04 MST"),
	)
}
