package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/mobile"
	"github.com/markethub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormScreenConfigRepository implements ScreenConfigRepository using GORM
type GormScreenConfigRepository struct {
	db *gorm.DB
}

// NewGormScreenConfigRepository creates a new GormScreenConfigRepository
func NewGormScreenConfigRepository(db *gorm.DB) *GormScreenConfigRepository {
	return &GormScreenConfigRepository{db: db}
}

// FindByID finds a screen config by ID
func (r *GormScreenConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*mobile.ScreenConfig, error) {
	var screen mobile.ScreenConfig
	if err := r.db.WithContext(ctx).First(&screen, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &screen, nil
}

// FindByScreenKey finds a screen config by its unique screen key
func (r *GormScreenConfigRepository) FindByScreenKey(ctx context.Context, screenKey string) (*mobile.ScreenConfig, error) {
	var screen mobile.ScreenConfig
	if err := r.db.WithContext(ctx).
		Where("screen_key = ?", screenKey).
		First(&screen).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &screen, nil
}

// FindAll finds all screen configs matching the filter
func (r *GormScreenConfigRepository) FindAll(ctx context.Context, filter shared.Filter) ([]mobile.ScreenConfig, error) {
	var screens []mobile.ScreenConfig
	query := r.applySearch(r.db.WithContext(ctx).Model(&mobile.ScreenConfig{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ScreenConfigSortFields, "screen_key")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&screens).Error; err != nil {
		return nil, err
	}
	return screens, nil
}

// FindPublished finds all screen configs currently live
func (r *GormScreenConfigRepository) FindPublished(ctx context.Context) ([]mobile.ScreenConfig, error) {
	var screens []mobile.ScreenConfig
	if err := r.db.WithContext(ctx).
		Where("status = ?", mobile.ScreenStatusPublished).
		Order("screen_key ASC").
		Find(&screens).Error; err != nil {
		return nil, err
	}
	return screens, nil
}

// Save creates or updates a screen config
func (r *GormScreenConfigRepository) Save(ctx context.Context, screen *mobile.ScreenConfig) error {
	return r.db.WithContext(ctx).Save(screen).Error
}

// Delete deletes a screen config
func (r *GormScreenConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&mobile.ScreenConfig{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts screen configs matching the filter
func (r *GormScreenConfigRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&mobile.ScreenConfig{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByScreenKey checks if a screen config with the given key exists
func (r *GormScreenConfigRepository) ExistsByScreenKey(ctx context.Context, screenKey string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&mobile.ScreenConfig{}).
		Where("screen_key = ?", screenKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormScreenConfigRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("screen_key ILIKE ? OR title ILIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "theme":
			query = query.Where("theme = ?", value)
		}
	}

	return query
}

// Ensure GormScreenConfigRepository implements ScreenConfigRepository
var _ mobile.ScreenConfigRepository = (*GormScreenConfigRepository)(nil)
