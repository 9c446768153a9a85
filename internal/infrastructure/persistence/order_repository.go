package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/order"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// revenueStatuses are the order states that count toward revenue.
// Cancelled and refunded orders are excluded.
var revenueStatuses = []order.OrderStatus{
	order.OrderStatusPaid,
	order.OrderStatusFulfilled,
	order.OrderStatusCompleted,
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID with line items preloaded
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByOrderNumber finds an order by its order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindAll finds all orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.applyFilter(r.db.WithContext(ctx).Model(&order.Order{}).Preload("Items"), filter)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByStatus finds orders with the given status, paginated
func (r *GormOrderRepository) FindByStatus(ctx context.Context, status order.OrderStatus, filter shared.Filter) (shared.Paginated[order.Order], error) {
	return r.findPaginated(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ?", status)
	})
}

// FindByCustomerEmail finds orders for the given customer email, paginated
func (r *GormOrderRepository) FindByCustomerEmail(ctx context.Context, email string, filter shared.Filter) (shared.Paginated[order.Order], error) {
	return r.findPaginated(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("customer_email = ?", email)
	})
}

// FindCreatedBetween finds orders created within [from, to), paginated
func (r *GormOrderRepository) FindCreatedBetween(ctx context.Context, from, to time.Time, filter shared.Filter) (shared.Paginated[order.Order], error) {
	return r.findPaginated(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("created_at >= ? AND created_at < ?", from, to)
	})
}

func (r *GormOrderRepository) findPaginated(ctx context.Context, filter shared.Filter, scope func(*gorm.DB) *gorm.DB) (shared.Paginated[order.Order], error) {
	filter.Normalize()

	base := scope(r.applySearch(r.db.WithContext(ctx).Model(&order.Order{}), filter))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return shared.Paginated[order.Order]{}, err
	}

	var orders []order.Order
	query := r.applyFilter(scope(r.applySearch(r.db.WithContext(ctx).Model(&order.Order{}).Preload("Items"), filter)), filter)
	if err := query.Find(&orders).Error; err != nil {
		return shared.Paginated[order.Order]{}, err
	}

	return shared.NewPaginated(orders, total, filter.Page, filter.PageSize), nil
}

// Save creates or updates an order including its line items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(o).Error
}

// Delete deletes an order; line items cascade
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&order.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&order.Order{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns order counts grouped by status
func (r *GormOrderRepository) CountByStatus(ctx context.Context) ([]order.StatusCount, error) {
	var counts []order.StatusCount
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}

// RevenueBetween sums revenue for orders paid within [from, to)
func (r *GormOrderRepository) RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Revenue decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue").
		Where("status IN ?", revenueStatuses).
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Revenue, nil
}

// DailyRevenue returns revenue and order counts per day for orders paid within [from, to)
func (r *GormOrderRepository) DailyRevenue(ctx context.Context, from, to time.Time) ([]order.RevenuePoint, error) {
	var points []order.RevenuePoint
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Select("DATE_TRUNC('day', paid_at) AS day, COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Where("status IN ?", revenueStatuses).
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Group("DATE_TRUNC('day', paid_at)").
		Order("day ASC").
		Scan(&points).Error; err != nil {
		return nil, err
	}
	return points, nil
}

// TopProducts returns the best-selling products by revenue for orders paid within [from, to)
func (r *GormOrderRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]order.ProductSales, error) {
	if limit <= 0 {
		limit = 5
	}

	var sales []order.ProductSales
	if err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id, order_items.name AS product_name, order_items.sku, SUM(order_items.quantity) AS units, COALESCE(SUM(order_items.line_total), 0) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status IN ?", revenueStatuses).
		Where("orders.paid_at >= ? AND orders.paid_at < ?", from, to).
		Group("order_items.product_id, order_items.name, order_items.sku").
		Order("revenue DESC").
		Limit(limit).
		Scan(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormOrderRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR customer_name ILIKE ? OR customer_email ILIKE ?", pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "payment_method":
			query = query.Where("payment_method = ?", value)
		}
	}

	return query
}

// Ensure GormOrderRepository implements OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
