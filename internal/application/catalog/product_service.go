package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/appctx"
	appsync "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/shared"
	domainsync "github.com/markethub/backend/internal/domain/sync"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles product management operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	recorder     *appsync.Recorder
	logger       *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	recorder *appsync.Recorder,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		recorder:     recorder,
		logger:       logger,
	}
}

// CreateProductInput contains input for creating a product
type CreateProductInput struct {
	SKU               string
	Name              string
	Description       string
	Price             decimal.Decimal
	CompareAtPrice    *decimal.Decimal
	Cost              *decimal.Decimal
	CategoryID        *uuid.UUID
	StockQuantity     int
	LowStockThreshold *int
	Attributes        string
	ImageURLs         string
}

// UpdateProductInput contains input for updating a product
type UpdateProductInput struct {
	ID             uuid.UUID
	Name           *string
	Description    *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Cost           *decimal.Decimal
	CategoryID     *uuid.UUID
	Attributes     *string
	ImageURLs      *string
}

// ProductDTO represents product data returned to the HTTP layer
type ProductDTO struct {
	ID                uuid.UUID       `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Price             decimal.Decimal `json:"price"`
	CompareAtPrice    decimal.Decimal `json:"compare_at_price"`
	Cost              decimal.Decimal `json:"cost"`
	Margin            decimal.Decimal `json:"margin"`
	CategoryID        *uuid.UUID      `json:"category_id,omitempty"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LowStock          bool            `json:"low_stock"`
	Status            string          `json:"status"`
	Attributes        string          `json:"attributes"`
	ImageURLs         string          `json:"image_urls"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	exists, err := s.productRepo.ExistsBySKU(ctx, input.SKU)
	if err != nil {
		s.logger.Error("Failed to check SKU existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check SKU availability")
	}
	if exists {
		return nil, shared.NewDomainError("SKU_EXISTS", "A product with this SKU already exists")
	}

	product, err := catalog.NewProduct(input.SKU, input.Name, input.Price)
	if err != nil {
		return nil, err
	}

	if input.Description != "" {
		if err := product.Update(input.Name, input.Description); err != nil {
			return nil, err
		}
	}
	if input.CompareAtPrice != nil {
		if err := product.SetCompareAtPrice(*input.CompareAtPrice); err != nil {
			return nil, err
		}
	}
	if input.Cost != nil {
		if err := product.SetCost(*input.Cost); err != nil {
			return nil, err
		}
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.SetCategory(input.CategoryID)
	}
	if input.StockQuantity > 0 {
		if err := product.AdjustStock(input.StockQuantity); err != nil {
			return nil, err
		}
	}
	if input.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(*input.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if input.Attributes != "" {
		if err := product.SetAttributes(input.Attributes); err != nil {
			return nil, err
		}
	}
	if input.ImageURLs != "" {
		if err := product.SetImageURLs(input.ImageURLs); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.Error("Failed to save product", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create product")
	}

	s.recorder.Record(ctx, "product", product.ID, domainsync.OpCreate, appctx.Actor(ctx))
	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))
	return toProductDTO(product), nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

// GetBySKU retrieves a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*ProductDTO, error) {
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		s.logger.Error("Failed to find product by SKU", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find product")
	}
	return toProductDTO(product), nil
}

// List retrieves a paginated list of products
func (s *ProductService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductDTO], error) {
	filter.Normalize()

	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list products")
	}
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list products")
	}

	dtos := make([]ProductDTO, len(products))
	for i := range products {
		dtos[i] = *toProductDTO(&products[i])
	}
	result := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListLowStock retrieves products at or below their low-stock threshold
func (s *ProductService) ListLowStock(ctx context.Context, filter shared.Filter) ([]ProductDTO, error) {
	filter.Normalize()

	products, err := s.productRepo.FindLowStock(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list low stock products", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list low stock products")
	}
	dtos := make([]ProductDTO, len(products))
	for i := range products {
		dtos[i] = *toProductDTO(&products[i])
	}
	return dtos, nil
}

// Update updates a product
func (s *ProductService) Update(ctx context.Context, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	name := product.Name
	description := product.Description
	if input.Name != nil {
		name = *input.Name
	}
	if input.Description != nil {
		description = *input.Description
	}
	if name != product.Name || description != product.Description {
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if input.Price != nil {
		if err := product.SetPrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.CompareAtPrice != nil {
		if err := product.SetCompareAtPrice(*input.CompareAtPrice); err != nil {
			return nil, err
		}
	}
	if input.Cost != nil {
		if err := product.SetCost(*input.Cost); err != nil {
			return nil, err
		}
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.SetCategory(input.CategoryID)
	}
	if input.Attributes != nil {
		if err := product.SetAttributes(*input.Attributes); err != nil {
			return nil, err
		}
	}
	if input.ImageURLs != nil {
		if err := product.SetImageURLs(*input.ImageURLs); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.Error("Failed to update product", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update product")
	}

	s.recorder.Record(ctx, "product", product.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	return toProductDTO(product), nil
}

// AdjustStock applies a signed stock delta
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.AdjustStock(delta); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.Error("Failed to adjust stock", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to adjust stock")
	}

	s.recorder.Record(ctx, "product", product.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	s.logger.Info("Stock adjusted",
		zap.String("product_id", id.String()),
		zap.Int("delta", delta),
		zap.Int("stock", product.StockQuantity))
	return toProductDTO(product), nil
}

// SetStatus activates, deactivates or archives a product
func (s *ProductService) SetStatus(ctx context.Context, id uuid.UUID, status catalog.ProductStatus) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	switch status {
	case catalog.ProductStatusActive:
		err = product.Activate()
	case catalog.ProductStatusInactive:
		err = product.Deactivate()
	case catalog.ProductStatusArchived:
		err = product.Archive()
	default:
		err = shared.NewDomainError("INVALID_STATUS", "Unknown product status: "+string(status))
	}
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.Error("Failed to update product status", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update product status")
	}

	s.recorder.Record(ctx, "product", product.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	return toProductDTO(product), nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findProduct(ctx, id); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete product", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete product")
	}
	s.recorder.Record(ctx, "product", id, domainsync.OpDelete, appctx.Actor(ctx))
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *ProductService) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("CATEGORY_NOT_FOUND", "Category not found")
		}
		s.logger.Error("Failed to find category", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to validate category")
	}
	return nil
}

func (s *ProductService) findProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
		}
		s.logger.Error("Failed to find product", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find product")
	}
	return product, nil
}

func toProductDTO(p *catalog.Product) *ProductDTO {
	return &ProductDTO{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		CompareAtPrice:    p.CompareAtPrice,
		Cost:              p.Cost,
		Margin:            p.Margin(),
		CategoryID:        p.CategoryID,
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.IsLowStock(),
		Status:            string(p.Status),
		Attributes:        p.Attributes,
		ImageURLs:         p.ImageURLs,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
