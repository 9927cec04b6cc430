package domain

import "time"

type NotificationType string

const (
	NotificationPriceAlert NotificationType = "price_alert"
	NotificationReminder   NotificationType = "reminder"
	NotificationInfo       NotificationType = "info"
)

// Notification is one row of the durable outbox. A nil ScheduledTime means
// deliver on the next dispatcher cycle. IsSent flips to true only after a
// confirmed delivery and the row is never re-sent afterwards.
type Notification struct {
	ID            uint
	UserID        int64
	Type          NotificationType
	Message       string
	IsSent        bool
	ScheduledTime *time.Time
	CreatedAt     time.Time
	SentAt        *time.Time
}
