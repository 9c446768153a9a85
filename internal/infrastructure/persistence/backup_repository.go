package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/backup"
	"github.com/markethub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBackupRepository implements BackupRepository using GORM
type GormBackupRepository struct {
	db *gorm.DB
}

// NewGormBackupRepository creates a new GormBackupRepository
func NewGormBackupRepository(db *gorm.DB) *GormBackupRepository {
	return &GormBackupRepository{db: db}
}

// FindByID finds a backup record by ID
func (r *GormBackupRepository) FindByID(ctx context.Context, id uuid.UUID) (*backup.BackupRecord, error) {
	var record backup.BackupRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindAll finds all backup records matching the filter
func (r *GormBackupRepository) FindAll(ctx context.Context, filter shared.Filter) ([]backup.BackupRecord, error) {
	var records []backup.BackupRecord
	query := r.applySearch(r.db.WithContext(ctx).Model(&backup.BackupRecord{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, BackupSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByStatus finds backup records in the given status
func (r *GormBackupRepository) FindByStatus(ctx context.Context, status backup.BackupStatus) ([]backup.BackupRecord, error) {
	var records []backup.BackupRecord
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindRecent finds the most recently created backup records
func (r *GormBackupRepository) FindRecent(ctx context.Context, limit int) ([]backup.BackupRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []backup.BackupRecord
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a backup record
func (r *GormBackupRepository) Save(ctx context.Context, record *backup.BackupRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Delete deletes a backup record
func (r *GormBackupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&backup.BackupRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts backup records matching the filter
func (r *GormBackupRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&backup.BackupRecord{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormBackupRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "kind":
			query = query.Where("kind = ?", value)
		}
	}

	return query
}

// Ensure GormBackupRepository implements BackupRepository
var _ backup.BackupRepository = (*GormBackupRepository)(nil)
