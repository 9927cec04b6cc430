package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyTriggered = errors.New("alert already triggered")
)

type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error
	ListByUser(ctx context.Context, userID int64) ([]Alert, error)
	ListActive(ctx context.Context) ([]Alert, error)
	CountActiveByUser(ctx context.Context, userID int64) (int64, error)
	// Cancel moves an active alert owned by userID to the cancelled terminal
	// state. Alerts in a terminal state report ErrNotFound.
	Cancel(ctx context.Context, userID int64, alertID uint) error
	// Trigger atomically records the notification and moves the alert to the
	// triggered terminal state. When the alert is no longer active nothing is
	// written and ErrAlreadyTriggered is returned.
	Trigger(ctx context.Context, alertID uint, triggeredAt time.Time, notification *Notification) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	// ListPending returns unsent notifications whose scheduled time is unset
	// or not after now.
	ListPending(ctx context.Context, now time.Time, limit int) ([]Notification, error)
	MarkSent(ctx context.Context, notificationID uint, sentAt time.Time) error
}

// QuoteCacheStore is the durable layer under the freshness cache. It is
// non-authoritative: losing every row only costs extra provider calls.
type QuoteCacheStore interface {
	Get(ctx context.Context, key string, now time.Time) (payload []byte, expiresAt time.Time, err error)
	Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
	// DeleteExpired removes rows whose expiry is not after now and reports
	// how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
