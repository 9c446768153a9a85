package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/bulk"
	"github.com/markethub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBulkOperationRepository implements OperationRepository using GORM
type GormBulkOperationRepository struct {
	db *gorm.DB
}

// NewGormBulkOperationRepository creates a new GormBulkOperationRepository
func NewGormBulkOperationRepository(db *gorm.DB) *GormBulkOperationRepository {
	return &GormBulkOperationRepository{db: db}
}

// FindByID finds a bulk operation by ID
func (r *GormBulkOperationRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.BulkOperation, error) {
	var op bulk.BulkOperation
	if err := r.db.WithContext(ctx).First(&op, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}

// FindAll finds all bulk operations matching the filter
func (r *GormBulkOperationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]bulk.BulkOperation, error) {
	var ops []bulk.BulkOperation
	query := r.applySearch(r.db.WithContext(ctx).Model(&bulk.BulkOperation{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, BulkOperationSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

// FindByStatus finds bulk operations in the given status, paginated
func (r *GormBulkOperationRepository) FindByStatus(ctx context.Context, status bulk.OperationStatus, filter shared.Filter) (shared.Paginated[bulk.BulkOperation], error) {
	filter.Normalize()

	base := r.db.WithContext(ctx).Model(&bulk.BulkOperation{}).Where("status = ?", status)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[bulk.BulkOperation]{}, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BulkOperationSortFields, "created_at")

	var ops []bulk.BulkOperation
	if err := r.db.WithContext(ctx).Model(&bulk.BulkOperation{}).
		Where("status = ?", status).
		Order(orderBy + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).Limit(filter.PageSize).
		Find(&ops).Error; err != nil {
		return shared.Paginated[bulk.BulkOperation]{}, err
	}

	return shared.NewPaginated(ops, total, filter.Page, filter.PageSize), nil
}

// FindRecent finds the most recently created bulk operations
func (r *GormBulkOperationRepository) FindRecent(ctx context.Context, limit int) ([]bulk.BulkOperation, error) {
	if limit <= 0 {
		limit = 20
	}

	var ops []bulk.BulkOperation
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

// Save creates or updates a bulk operation
func (r *GormBulkOperationRepository) Save(ctx context.Context, op *bulk.BulkOperation) error {
	return r.db.WithContext(ctx).Save(op).Error
}

// Delete deletes a bulk operation
func (r *GormBulkOperationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&bulk.BulkOperation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts bulk operations matching the filter
func (r *GormBulkOperationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&bulk.BulkOperation{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormBulkOperationRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "action":
			query = query.Where("action = ?", value)
		case "requested_by":
			query = query.Where("requested_by = ?", value)
		}
	}

	return query
}

// Ensure GormBulkOperationRepository implements OperationRepository
var _ bulk.OperationRepository = (*GormBulkOperationRepository)(nil)
