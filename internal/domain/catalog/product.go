package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusArchived ProductStatus = "archived"
)

// Product represents a sellable SKU in the store catalog
// It is the aggregate root for product management operations
type Product struct {
	shared.BaseAggregateRoot
	SKU               string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(200);not null"`
	Description       string          `gorm:"type:text"`
	CategoryID        *uuid.UUID      `gorm:"type:uuid;index"`
	Price             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CompareAtPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Strike-through price; zero means no promotion
	Cost              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQuantity     int             `gorm:"not null;default:0"`
	LowStockThreshold int             `gorm:"not null;default:0"`
	Status            ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
	Attributes        string          `gorm:"type:jsonb"` // JSON object of custom attributes
	ImageURLs         string          `gorm:"type:jsonb"` // JSON array of image URLs
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active product
func NewProduct(sku, name string, price decimal.Decimal) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(sku),
		Name:              name,
		Price:             price,
		CompareAtPrice:    decimal.Zero,
		Cost:              decimal.Zero,
		Status:            ProductStatusActive,
		Attributes:        "{}",
		ImageURLs:         "[]",
	}, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = name
	p.Description = description
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetCategory assigns the product to a category (nil clears it)
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.Touch()
	p.IncrementVersion()
}

// SetPrice updates the selling price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	p.Price = price
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetCompareAtPrice updates the strike-through price. Zero clears the promotion.
func (p *Product) SetCompareAtPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price cannot be negative")
	}
	if !price.IsZero() && price.LessThanOrEqual(p.Price) {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price must exceed the selling price")
	}
	p.CompareAtPrice = price
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetCost updates the unit cost
func (p *Product) SetCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}
	p.Cost = cost
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AdjustStock applies a signed delta to the stock quantity
func (p *Product) AdjustStock(delta int) error {
	next := p.StockQuantity + delta
	if next < 0 {
		return shared.ErrInsufficientStock
	}
	p.StockQuantity = next
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetLowStockThreshold sets the level below which the product is flagged
func (p *Product) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}
	p.LowStockThreshold = threshold
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetAttributes sets the custom attributes JSON object
func (p *Product) SetAttributes(attributes string) error {
	if attributes == "" {
		attributes = "{}"
	}
	trimmed := strings.TrimSpace(attributes)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return shared.NewDomainError("INVALID_ATTRIBUTES", "Attributes must be a JSON object")
	}
	p.Attributes = trimmed
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetImageURLs sets the image URL JSON array
func (p *Product) SetImageURLs(imageURLs string) error {
	if imageURLs == "" {
		imageURLs = "[]"
	}
	trimmed := strings.TrimSpace(imageURLs)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return shared.NewDomainError("INVALID_IMAGES", "Image URLs must be a JSON array")
	}
	p.ImageURLs = trimmed
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Activate makes the product visible and sellable
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("CANNOT_ACTIVATE", "Cannot activate an archived product")
	}
	p.Status = ProductStatusActive
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Deactivate hides the product from the storefront
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("CANNOT_DEACTIVATE", "Cannot deactivate an archived product")
	}
	p.Status = ProductStatusInactive
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Archive permanently retires the product. Archived products cannot be reactivated.
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Product is already archived")
	}
	p.Status = ProductStatusArchived
	p.Touch()
	p.IncrementVersion()
	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsLowStock returns true if stock is at or below the threshold
func (p *Product) IsLowStock() bool {
	return p.LowStockThreshold > 0 && p.StockQuantity <= p.LowStockThreshold
}

// Margin returns the profit margin percentage, zero when cost is zero
func (p *Product) Margin() decimal.Decimal {
	if p.Cost.IsZero() {
		return decimal.Zero
	}
	return p.Price.Sub(p.Cost).Div(p.Cost).Mul(decimal.NewFromInt(100))
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
