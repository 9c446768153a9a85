package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StatusCount pairs an order status with the number of orders in it
type StatusCount struct {
	Status OrderStatus
	Count  int64
}

// RevenuePoint is daily revenue rolled up for analytics
type RevenuePoint struct {
	Day     time.Time
	Revenue decimal.Decimal
	Orders  int64
}

// ProductSales aggregates units sold and revenue per product
type ProductSales struct {
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Units       int64
	Revenue     decimal.Decimal
}

// OrderRepository defines persistence operations for orders
type OrderRepository interface {
	shared.Repository[Order]

	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	FindByStatus(ctx context.Context, status OrderStatus, filter shared.Filter) (shared.Paginated[Order], error)
	FindByCustomerEmail(ctx context.Context, email string, filter shared.Filter) (shared.Paginated[Order], error)
	FindCreatedBetween(ctx context.Context, from, to time.Time, filter shared.Filter) (shared.Paginated[Order], error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	DailyRevenue(ctx context.Context, from, to time.Time) ([]RevenuePoint, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error)
}
