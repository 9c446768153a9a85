package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// topActorLimit caps grouped actor/IP counts returned to the monitor
const topActorLimit = 20

// GormSecurityEventRepository implements SecurityEventRepository using GORM
type GormSecurityEventRepository struct {
	db *gorm.DB
}

// NewGormSecurityEventRepository creates a new GormSecurityEventRepository
func NewGormSecurityEventRepository(db *gorm.DB) *GormSecurityEventRepository {
	return &GormSecurityEventRepository{db: db}
}

// Save appends a security event. Events are immutable once written.
func (r *GormSecurityEventRepository) Save(ctx context.Context, event *security.SecurityEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindByID finds a security event by its ID
func (r *GormSecurityEventRepository) FindByID(ctx context.Context, id string) (*security.SecurityEvent, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	var event security.SecurityEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// FindAll finds security events matching the filter, newest first
func (r *GormSecurityEventRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[security.SecurityEvent], error) {
	filter.Normalize()

	base := r.applySearch(r.db.WithContext(ctx).Model(&security.SecurityEvent{}), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[security.SecurityEvent]{}, err
	}

	query := r.applySearch(r.db.WithContext(ctx).Model(&security.SecurityEvent{}), filter)
	orderBy := ValidateSortField(filter.OrderBy, SecurityEventSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).Offset(filter.Offset()).Limit(filter.PageSize)

	var events []security.SecurityEvent
	if err := query.Find(&events).Error; err != nil {
		return shared.Paginated[security.SecurityEvent]{}, err
	}

	return shared.NewPaginated(events, total, filter.Page, filter.PageSize), nil
}

// CountByTypeSince counts events of the given type recorded at or after since
func (r *GormSecurityEventRepository) CountByTypeSince(ctx context.Context, eventType security.EventType, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&security.SecurityEvent{}).
		Where("type = ? AND created_at >= ?", eventType, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByActorSince counts events of the given type per actor, busiest first
func (r *GormSecurityEventRepository) CountByActorSince(ctx context.Context, eventType security.EventType, since time.Time) ([]security.ActorCount, error) {
	return r.groupedCounts(ctx, "actor", eventType, since)
}

// CountByIPSince counts events of the given type per source IP, busiest first
func (r *GormSecurityEventRepository) CountByIPSince(ctx context.Context, eventType security.EventType, since time.Time) ([]security.ActorCount, error) {
	return r.groupedCounts(ctx, "ip", eventType, since)
}

func (r *GormSecurityEventRepository) groupedCounts(ctx context.Context, column string, eventType security.EventType, since time.Time) ([]security.ActorCount, error) {
	var counts []security.ActorCount
	if err := r.db.WithContext(ctx).
		Model(&security.SecurityEvent{}).
		Select(column+" AS key, COUNT(*) AS count").
		Where("type = ? AND created_at >= ?", eventType, since).
		Where(column + " != ''").
		Group(column).
		Order("count DESC").
		Limit(topActorLimit).
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// HourlyCounts returns event counts per hour from since through the current
// hour, oldest first. Hours with no events are zero-filled so the caller
// always gets a dense series whose last bucket is the hour in progress.
func (r *GormSecurityEventRepository) HourlyCounts(ctx context.Context, since time.Time) ([]int64, error) {
	var rows []struct {
		Bucket time.Time
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&security.SecurityEvent{}).
		Select("DATE_TRUNC('hour', created_at) AS bucket, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE_TRUNC('hour', created_at)").
		Order("bucket ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	start := since.Truncate(time.Hour)
	end := time.Now().Truncate(time.Hour)
	if end.Before(start) {
		return []int64{}, nil
	}

	byHour := make(map[time.Time]int64, len(rows))
	for _, row := range rows {
		byHour[row.Bucket.UTC().Truncate(time.Hour)] = row.Count
	}

	var buckets []int64
	for hour := start; !hour.After(end); hour = hour.Add(time.Hour) {
		buckets = append(buckets, byHour[hour.UTC()])
	}
	return buckets, nil
}

// DeleteOlderThan removes events recorded before the cutoff
func (r *GormSecurityEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&security.SecurityEvent{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormSecurityEventRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("actor ILIKE ? OR ip ILIKE ? OR path ILIKE ?", pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "severity":
			query = query.Where("severity = ?", value)
		case "actor":
			query = query.Where("actor = ?", value)
		case "ip":
			query = query.Where("ip = ?", value)
		case "since":
			query = query.Where("created_at >= ?", value)
		case "until":
			query = query.Where("created_at < ?", value)
		}
	}

	return query
}

// Ensure GormSecurityEventRepository implements SecurityEventRepository
var _ security.SecurityEventRepository = (*GormSecurityEventRepository)(nil)
