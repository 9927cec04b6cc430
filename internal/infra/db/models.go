package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type alertModel struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      int64           `gorm:"index:idx_alerts_user_active,priority:1;not null"`
	AssetType   string          `gorm:"column:asset_type;not null"`
	Symbol      string          `gorm:"not null"`
	TargetPrice decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Condition   string          `gorm:"not null"`
	IsActive    bool            `gorm:"index:idx_alerts_user_active,priority:2"`
	CreatedAt   time.Time
	TriggeredAt *time.Time
}

func (alertModel) TableName() string { return "price_alerts" }

type notificationModel struct {
	ID            uint   `gorm:"primaryKey"`
	UserID        int64  `gorm:"index;not null"`
	Type          string `gorm:"not null"`
	Message       string `gorm:"not null"`
	IsSent        bool   `gorm:"index"`
	ScheduledTime *time.Time
	CreatedAt     time.Time
	SentAt        *time.Time
}

func (notificationModel) TableName() string { return "notifications" }

type quoteCacheModel struct {
	ID        uint   `gorm:"primaryKey"`
	CacheKey  string `gorm:"uniqueIndex;not null"`
	Payload   []byte `gorm:"not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (quoteCacheModel) TableName() string { return "quote_cache" }
