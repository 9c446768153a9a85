package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAlertRepository implements AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// FindByID finds an alert by ID
func (r *GormAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*security.Alert, error) {
	var alert security.Alert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindAll finds all alerts matching the filter
func (r *GormAlertRepository) FindAll(ctx context.Context, filter shared.Filter) ([]security.Alert, error) {
	var alerts []security.Alert
	query := r.applySearch(r.db.WithContext(ctx).Model(&security.Alert{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, AlertSortFields, "last_seen_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindByStatus finds alerts in the given status, paginated
func (r *GormAlertRepository) FindByStatus(ctx context.Context, status security.AlertStatus, filter shared.Filter) (shared.Paginated[security.Alert], error) {
	filter.Normalize()

	base := r.applySearch(r.db.WithContext(ctx).Model(&security.Alert{}).Where("status = ?", status), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[security.Alert]{}, err
	}

	query := r.applySearch(r.db.WithContext(ctx).Model(&security.Alert{}).Where("status = ?", status), filter)
	orderBy := ValidateSortField(filter.OrderBy, AlertSortFields, "last_seen_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).Offset(filter.Offset()).Limit(filter.PageSize)

	var alerts []security.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return shared.Paginated[security.Alert]{}, err
	}

	return shared.NewPaginated(alerts, total, filter.Page, filter.PageSize), nil
}

// FindActiveByDedupKey finds an open or acknowledged alert with the given
// dedup key. Used to fold repeat occurrences into one alert.
func (r *GormAlertRepository) FindActiveByDedupKey(ctx context.Context, dedupKey string) (*security.Alert, error) {
	var alert security.Alert
	if err := r.db.WithContext(ctx).
		Where("dedup_key = ? AND status IN ?", dedupKey, []security.AlertStatus{
			security.AlertStatusOpen,
			security.AlertStatusAcknowledged,
		}).
		Order("last_seen_at DESC").
		First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// Save creates or updates an alert
func (r *GormAlertRepository) Save(ctx context.Context, alert *security.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

// Delete deletes an alert
func (r *GormAlertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&security.Alert{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts alerts matching the filter
func (r *GormAlertRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&security.Alert{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns alert counts grouped by status
func (r *GormAlertRepository) CountByStatus(ctx context.Context) (map[security.AlertStatus]int64, error) {
	var rows []struct {
		Status security.AlertStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&security.Alert{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[security.AlertStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormAlertRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("rule ILIKE ? OR message ILIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "severity":
			query = query.Where("severity = ?", value)
		case "rule":
			query = query.Where("rule = ?", value)
		}
	}

	return query
}

// Ensure GormAlertRepository implements AlertRepository
var _ security.AlertRepository = (*GormAlertRepository)(nil)
