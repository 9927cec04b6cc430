package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tabdila/pricewatch/internal/domain"
)

var (
	ErrInvalidTargetPrice = errors.New("target price must be positive")
	ErrQuotaExceeded      = errors.New("maximum number of active alerts reached")
	ErrAlertNotFound      = errors.New("alert not found")
)

type AlertUsecase struct {
	alerts domain.AlertRepository
	quota  int
}

func NewAlertUsecase(alerts domain.AlertRepository, quota int) *AlertUsecase {
	return &AlertUsecase{alerts: alerts, quota: quota}
}

// CreateAlert validates and stores a new active alert. The per-user cap on
// active alerts is enforced here: over quota nothing is inserted and
// ErrQuotaExceeded comes back instead of dropping an older alert.
func (u *AlertUsecase) CreateAlert(ctx context.Context, userID int64, assetClass, symbol string, targetPrice decimal.Decimal, condition string) (*domain.Alert, error) {
	class, err := domain.ParseAssetClass(assetClass)
	if err != nil {
		return nil, err
	}
	cond, err := domain.ParseAlertCondition(condition)
	if err != nil {
		return nil, err
	}
	if !targetPrice.IsPositive() {
		return nil, ErrInvalidTargetPrice
	}

	active, err := u.alerts.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active >= int64(u.quota) {
		return nil, ErrQuotaExceeded
	}

	alert := &domain.Alert{
		UserID:      userID,
		AssetClass:  class,
		Symbol:      strings.ToUpper(strings.TrimSpace(symbol)),
		TargetPrice: targetPrice,
		Condition:   cond,
		IsActive:    true,
	}
	if err := u.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// CancelAlert moves an active alert of userID to the cancelled terminal
// state. Triggered or already cancelled alerts report ErrAlertNotFound.
func (u *AlertUsecase) CancelAlert(ctx context.Context, userID int64, alertID uint) error {
	if err := u.alerts.Cancel(ctx, userID, alertID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

func (u *AlertUsecase) ListAlerts(ctx context.Context, userID int64) ([]domain.Alert, error) {
	return u.alerts.ListByUser(ctx, userID)
}
