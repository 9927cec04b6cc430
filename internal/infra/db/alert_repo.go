package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tabdila/pricewatch/internal/domain"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	model := mapAlertToModel(*alert)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	alert.ID = model.ID
	alert.CreatedAt = model.CreatedAt
	return nil
}

func (r *AlertRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) ListActive(ctx context.Context) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&alertModel{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// Cancel deactivates an active alert owned by userID. The is_active guard
// keeps terminal states terminal: cancelling a triggered or already
// cancelled alert reports ErrNotFound.
func (r *AlertRepository) Cancel(ctx context.Context, userID int64, alertID uint) error {
	result := r.db.WithContext(ctx).
		Model(&alertModel{}).
		Where("id = ? AND user_id = ? AND is_active = ?", alertID, userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Trigger writes the notification and flips the alert to triggered in one
// transaction. The conditional update makes a retried cycle that finds the
// alert already triggered a no-op: the transaction rolls back before the
// notification row is committed, so at most one notification ever exists
// per trigger.
func (r *AlertRepository) Trigger(ctx context.Context, alertID uint, triggeredAt time.Time, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := mapNotificationToModel(*notification)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}

		result := tx.Model(&alertModel{}).
			Where("id = ? AND is_active = ?", alertID, true).
			Updates(map[string]any{"is_active": false, "triggered_at": triggeredAt})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrAlreadyTriggered
		}

		notification.ID = model.ID
		notification.CreatedAt = model.CreatedAt
		return nil
	})
}

func mapAlertsToDomain(models []alertModel) []domain.Alert {
	alerts := make([]domain.Alert, 0, len(models))
	for _, model := range models {
		alerts = append(alerts, domain.Alert{
			ID:          model.ID,
			UserID:      model.UserID,
			AssetClass:  domain.AssetClass(model.AssetType),
			Symbol:      model.Symbol,
			TargetPrice: model.TargetPrice,
			Condition:   domain.AlertCondition(model.Condition),
			IsActive:    model.IsActive,
			CreatedAt:   model.CreatedAt,
			TriggeredAt: model.TriggeredAt,
		})
	}
	return alerts
}

func mapAlertToModel(alert domain.Alert) alertModel {
	return alertModel{
		ID:          alert.ID,
		UserID:      alert.UserID,
		AssetType:   string(alert.AssetClass),
		Symbol:      alert.Symbol,
		TargetPrice: alert.TargetPrice,
		Condition:   string(alert.Condition),
		IsActive:    alert.IsActive,
		CreatedAt:   alert.CreatedAt,
		TriggeredAt: alert.TriggeredAt,
	}
}
