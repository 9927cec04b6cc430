package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tabdila/pricewatch/internal/domain"
)

// QuoteCacheRepository is the durable layer of the freshness cache. It is a
// pure performance optimization: dropping the table never changes behavior
// beyond extra provider calls.
type QuoteCacheRepository struct {
	db *gorm.DB
}

func NewQuoteCacheRepository(db *gorm.DB) *QuoteCacheRepository {
	return &QuoteCacheRepository{db: db}
}

// Get returns the payload for key only while it is unexpired; the expiry
// check is part of the query predicate.
func (r *QuoteCacheRepository) Get(ctx context.Context, key string, now time.Time) ([]byte, time.Time, error) {
	var model quoteCacheModel
	err := r.db.WithContext(ctx).
		Where("cache_key = ? AND expires_at > ?", key, now).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, time.Time{}, domain.ErrNotFound
		}
		return nil, time.Time{}, err
	}
	return model.Payload, model.ExpiresAt, nil
}

// Put upserts the entry for key. Last write wins.
func (r *QuoteCacheRepository) Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	model := quoteCacheModel{
		CacheKey:  key,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "created_at", "expires_at"}),
		}).
		Create(&model).Error
}

// DeleteExpired only matches rows whose expiry has passed, so an entry
// refreshed by a concurrent Put keeps its extended life.
func (r *QuoteCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&quoteCacheModel{})
	return result.RowsAffected, result.Error
}
