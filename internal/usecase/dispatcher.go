package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tabdila/pricewatch/internal/domain"
)

// Notifier is the messaging boundary. Duplicate suppression, if any, lives
// on its far side; the dispatcher only promises at-least-once delivery.
type Notifier interface {
	Notify(userID int64, text string) error
}

// Dispatcher drains the notification outbox: due unsent rows go to the
// notifier and are marked sent only after a confirmed delivery. A failed
// send leaves the row eligible for the next cycle.
type Dispatcher struct {
	notifications domain.NotificationRepository
	notifier      Notifier
	interval      time.Duration
	batchSize     int
	logger        *zap.Logger
	now           func() time.Time
}

func NewDispatcher(notifications domain.NotificationRepository, notifier Notifier, interval time.Duration, batchSize int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		notifier:      notifier,
		interval:      interval,
		batchSize:     batchSize,
		logger:        logger,
		now:           time.Now,
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.DispatchPending(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.DispatchPending(ctx)
		}
	}
}

// DispatchPending delivers one batch of due notifications. Failures are
// isolated per row.
func (d *Dispatcher) DispatchPending(ctx context.Context) {
	now := d.now().UTC()
	pending, err := d.notifications.ListPending(ctx, now, d.batchSize)
	if err != nil {
		d.logger.Error("failed to load pending notifications", zap.Error(err))
		return
	}

	for _, notification := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := d.notifier.Notify(notification.UserID, notification.Message); err != nil {
			d.logger.Warn("notification delivery failed, will retry",
				zap.Uint("notification_id", notification.ID),
				zap.Int64("user_id", notification.UserID),
				zap.Error(err),
			)
			continue
		}
		if err := d.notifications.MarkSent(ctx, notification.ID, d.now().UTC()); err != nil {
			// The send succeeded; a failed flip means the row may be sent
			// again next cycle, which at-least-once semantics allow.
			d.logger.Error("failed to mark notification sent",
				zap.Uint("notification_id", notification.ID),
				zap.Error(err),
			)
		}
	}
}
