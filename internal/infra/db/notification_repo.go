package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tabdila/pricewatch/internal/domain"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	model := mapNotificationToModel(*notification)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	notification.ID = model.ID
	notification.CreatedAt = model.CreatedAt
	return nil
}

func (r *NotificationRepository) ListPending(ctx context.Context, now time.Time, limit int) ([]domain.Notification, error) {
	query := r.db.WithContext(ctx).
		Where("is_sent = ?", false).
		Where("scheduled_time IS NULL OR scheduled_time <= ?", now).
		Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []notificationModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(models))
	for _, model := range models {
		notifications = append(notifications, mapNotificationToDomain(model))
	}
	return notifications, nil
}

// MarkSent flips is_sent after a confirmed delivery. The is_sent guard
// makes the flip idempotent under dispatcher retries.
func (r *NotificationRepository) MarkSent(ctx context.Context, notificationID uint, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("id = ? AND is_sent = ?", notificationID, false).
		Updates(map[string]any{"is_sent": true, "sent_at": sentAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapNotificationToDomain(model notificationModel) domain.Notification {
	return domain.Notification{
		ID:            model.ID,
		UserID:        model.UserID,
		Type:          domain.NotificationType(model.Type),
		Message:       model.Message,
		IsSent:        model.IsSent,
		ScheduledTime: model.ScheduledTime,
		CreatedAt:     model.CreatedAt,
		SentAt:        model.SentAt,
	}
}

func mapNotificationToModel(notification domain.Notification) notificationModel {
	return notificationModel{
		ID:            notification.ID,
		UserID:        notification.UserID,
		Type:          string(notification.Type),
		Message:       notification.Message,
		IsSent:        notification.IsSent,
		ScheduledTime: notification.ScheduledTime,
		CreatedAt:     notification.CreatedAt,
		SentAt:        notification.SentAt,
	}
}
