package persistence

import (
	"context"
	"time"

	domainsync "github.com/markethub/backend/internal/domain/sync"
	"gorm.io/gorm"
)

// GormChangeFeedRepository implements ChangeFeedRepository using GORM.
// The feed is an append-only table keyed by a monotonically increasing
// sequence; clients poll with their last seen sequence as a cursor.
type GormChangeFeedRepository struct {
	db *gorm.DB
}

// NewGormChangeFeedRepository creates a new GormChangeFeedRepository
func NewGormChangeFeedRepository(db *gorm.DB) *GormChangeFeedRepository {
	return &GormChangeFeedRepository{db: db}
}

// Append adds an event to the feed. Seq is assigned by the database.
func (r *GormChangeFeedRepository) Append(ctx context.Context, event *domainsync.ChangeEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindAfter returns up to limit events with Seq greater than afterSeq,
// ordered by Seq ascending
func (r *GormChangeFeedRepository) FindAfter(ctx context.Context, afterSeq int64, limit int) ([]domainsync.ChangeEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	var events []domainsync.ChangeEvent
	if err := r.db.WithContext(ctx).
		Where("seq > ?", afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// LatestSeq returns the highest Seq in the feed, zero when empty
func (r *GormChangeFeedRepository) LatestSeq(ctx context.Context) (int64, error) {
	var result struct {
		Seq int64
	}
	if err := r.db.WithContext(ctx).
		Model(&domainsync.ChangeEvent{}).
		Select("COALESCE(MAX(seq), 0) AS seq").
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Seq, nil
}

// DeleteOlderThan removes feed entries created before the cutoff
func (r *GormChangeFeedRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domainsync.ChangeEvent{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Ensure GormChangeFeedRepository implements ChangeFeedRepository
var _ domainsync.ChangeFeedRepository = (*GormChangeFeedRepository)(nil)
