package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/tabdila/pricewatch/internal/domain"
)

var ErrScheduledInPast = errors.New("scheduled time must be in the future")

// NotificationUsecase writes rows into the durable outbox; the dispatcher
// delivers them.
type NotificationUsecase struct {
	notifications domain.NotificationRepository
	now           func() time.Time
}

func NewNotificationUsecase(notifications domain.NotificationRepository) *NotificationUsecase {
	return &NotificationUsecase{notifications: notifications, now: time.Now}
}

// Schedule queues a reminder for delivery at the given time.
func (u *NotificationUsecase) Schedule(ctx context.Context, userID int64, message string, at time.Time) (*domain.Notification, error) {
	if !at.After(u.now()) {
		return nil, ErrScheduledInPast
	}
	scheduled := at.UTC()
	notification := &domain.Notification{
		UserID:        userID,
		Type:          domain.NotificationReminder,
		Message:       message,
		ScheduledTime: &scheduled,
	}
	if err := u.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// SendNow queues a message for the next dispatcher cycle.
func (u *NotificationUsecase) SendNow(ctx context.Context, userID int64, message string) (*domain.Notification, error) {
	notification := &domain.Notification{
		UserID:  userID,
		Type:    domain.NotificationInfo,
		Message: message,
	}
	if err := u.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}
