package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/integration"
	"github.com/markethub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormIntegrationRepository implements IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// FindByID finds an integration by ID
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	var integ integration.Integration
	if err := r.db.WithContext(ctx).First(&integ, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &integ, nil
}

// FindAll finds all integrations matching the filter
func (r *GormIntegrationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]integration.Integration, error) {
	var integrations []integration.Integration
	query := r.applySearch(r.db.WithContext(ctx).Model(&integration.Integration{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, IntegrationSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&integrations).Error; err != nil {
		return nil, err
	}
	return integrations, nil
}

// FindByProvider finds all integrations for the given provider
func (r *GormIntegrationRepository) FindByProvider(ctx context.Context, provider integration.Provider) ([]integration.Integration, error) {
	var integrations []integration.Integration
	if err := r.db.WithContext(ctx).
		Where("provider = ?", provider).
		Order("created_at DESC").
		Find(&integrations).Error; err != nil {
		return nil, err
	}
	return integrations, nil
}

// FindByStatus finds all integrations in the given status
func (r *GormIntegrationRepository) FindByStatus(ctx context.Context, status integration.IntegrationStatus) ([]integration.Integration, error) {
	var integrations []integration.Integration
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&integrations).Error; err != nil {
		return nil, err
	}
	return integrations, nil
}

// FindSyncable finds enabled integrations in connected state
func (r *GormIntegrationRepository) FindSyncable(ctx context.Context) ([]integration.Integration, error) {
	var integrations []integration.Integration
	if err := r.db.WithContext(ctx).
		Where("enabled = ? AND status = ?", true, integration.IntegrationStatusConnected).
		Order("last_sync_at ASC NULLS FIRST").
		Find(&integrations).Error; err != nil {
		return nil, err
	}
	return integrations, nil
}

// Save creates or updates an integration
func (r *GormIntegrationRepository) Save(ctx context.Context, integ *integration.Integration) error {
	return r.db.WithContext(ctx).Save(integ).Error
}

// Delete deletes an integration
func (r *GormIntegrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&integration.Integration{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts integrations matching the filter
func (r *GormIntegrationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&integration.Integration{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns integration counts grouped by status
func (r *GormIntegrationRepository) CountByStatus(ctx context.Context) (map[integration.IntegrationStatus]int64, error) {
	var rows []struct {
		Status integration.IntegrationStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&integration.Integration{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[integration.IntegrationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormIntegrationRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ?", pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "provider":
			query = query.Where("provider = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "enabled":
			query = query.Where("enabled = ?", value)
		}
	}

	return query
}

// Ensure GormIntegrationRepository implements IntegrationRepository
var _ integration.IntegrationRepository = (*GormIntegrationRepository)(nil)
