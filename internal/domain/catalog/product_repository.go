package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	shared.Repository[Product]
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]Product, error)
	FindByStatus(ctx context.Context, status ProductStatus, filter shared.Filter) ([]Product, error)
	FindLowStock(ctx context.Context, filter shared.Filter) ([]Product, error)
	CountByStatus(ctx context.Context, status ProductStatus) (int64, error)
	CountLowStock(ctx context.Context) (int64, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	SaveBatch(ctx context.Context, products []*Product) error
}

// CategoryRepository defines persistence operations for categories
type CategoryRepository interface {
	shared.Repository[Category]
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}
