package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AlertCondition string

const (
	ConditionAbove  AlertCondition = "above"
	ConditionBelow  AlertCondition = "below"
	ConditionEquals AlertCondition = "equals"
)

var ErrInvalidCondition = errors.New("invalid alert condition")

func ParseAlertCondition(input string) (AlertCondition, error) {
	switch AlertCondition(strings.ToLower(strings.TrimSpace(input))) {
	case ConditionAbove:
		return ConditionAbove, nil
	case ConditionBelow:
		return ConditionBelow, nil
	case ConditionEquals:
		return ConditionEquals, nil
	default:
		return "", ErrInvalidCondition
	}
}

// Alert is a user-defined trigger condition. Active alerts move to exactly
// one of two terminal states: Triggered (evaluation loop, TriggeredAt set)
// or Cancelled (user, TriggeredAt stays nil). Once TriggeredAt is set the
// alert must never produce another notification.
type Alert struct {
	ID          uint
	UserID      int64
	AssetClass  AssetClass
	Symbol      string
	TargetPrice decimal.Decimal
	Condition   AlertCondition
	IsActive    bool
	CreatedAt   time.Time
	TriggeredAt *time.Time
}

// Matches reports whether price satisfies the alert condition. The equals
// condition uses a relative tolerance around the target.
func (a Alert) Matches(price, tolerance decimal.Decimal) bool {
	switch a.Condition {
	case ConditionAbove:
		return price.GreaterThan(a.TargetPrice)
	case ConditionBelow:
		return price.LessThan(a.TargetPrice)
	case ConditionEquals:
		band := a.TargetPrice.Mul(tolerance).Abs()
		return price.Sub(a.TargetPrice).Abs().LessThan(band)
	default:
		return false
	}
}
