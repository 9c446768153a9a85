package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/appctx"
	appsync "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/order"
	"github.com/markethub/backend/internal/domain/shared"
	domainsync "github.com/markethub/backend/internal/domain/sync"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService handles order management operations. Paying an order
// reserves product stock; cancelling a paid order releases it. Refunds
// leave stock untouched since returned goods need manual inspection.
type OrderService struct {
	orderRepo   order.OrderRepository
	productRepo catalog.ProductRepository
	recorder    *appsync.Recorder
	logger      *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo order.OrderRepository,
	productRepo catalog.ProductRepository,
	recorder *appsync.Recorder,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		recorder:    recorder,
		logger:      logger,
	}
}

// OrderItemInput is one requested line item
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput contains input for creating an order
type CreateOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	Items           []OrderItemInput
	ShippingFee     decimal.Decimal
	ShippingAddress string
	TaxAmount       decimal.Decimal
}

// OrderItemDTO represents a line item returned to the HTTP layer
type OrderItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderDTO represents order data returned to the HTTP layer
type OrderDTO struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	Status          string          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Items           []OrderItemDTO  `json:"items"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	FulfilledAt     *time.Time      `json:"fulfilled_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Create creates a pending order, pricing items from the catalog
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if len(input.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order requires at least one item")
	}

	o, err := order.NewOrder(input.CustomerName, input.CustomerEmail)
	if err != nil {
		return nil, err
	}

	for _, item := range input.Items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found: "+item.ProductID.String())
			}
			s.logger.Error("Failed to load product", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load product")
		}
		if !product.IsActive() {
			return nil, shared.NewDomainError("PRODUCT_INACTIVE", "Product is not available: "+product.SKU)
		}
		if product.StockQuantity < item.Quantity {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock for "+product.SKU)
		}
		if err := o.AddItem(product.ID, product.SKU, product.Name, product.Price, item.Quantity); err != nil {
			return nil, err
		}
	}

	if !input.ShippingFee.IsZero() || input.ShippingAddress != "" {
		if err := o.SetShipping(input.ShippingFee, input.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if !input.TaxAmount.IsZero() {
		if err := o.SetTax(input.TaxAmount); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.logger.Error("Failed to save order", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create order")
	}

	s.recorder.Record(ctx, "order", o.ID, domainsync.OpCreate, appctx.Actor(ctx))
	s.logger.Info("Order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.Total.String()))
	return toOrderDTO(o), nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrderDTO(o), nil
}

// GetByNumber retrieves an order by its human-facing order number
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
		}
		s.logger.Error("Failed to find order", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find order")
	}
	return toOrderDTO(o), nil
}

// UpdateShipping changes the shipping fee and address on a pending order
func (s *OrderService) UpdateShipping(ctx context.Context, id uuid.UUID, fee decimal.Decimal, address string) (*OrderDTO, error) {
	return s.transition(ctx, id, func(o *order.Order) error {
		return o.SetShipping(fee, address)
	})
}

// StatusSummary returns the number of orders in each status
func (s *OrderService) StatusSummary(ctx context.Context) (map[string]int64, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count orders by status", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to summarize orders")
	}
	summary := make(map[string]int64, len(counts))
	for _, c := range counts {
		summary[string(c.Status)] = c.Count
	}
	return summary, nil
}

// List retrieves a paginated list of orders
func (s *OrderService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[OrderDTO], error) {
	filter.Normalize()

	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list orders")
	}
	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list orders")
	}

	dtos := make([]OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = *toOrderDTO(&orders[i])
	}
	result := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &result, nil
}

// MarkPaid records payment and reserves stock for every line item
func (s *OrderService) MarkPaid(ctx context.Context, id uuid.UUID, paymentMethod, paymentRef string) (*OrderDTO, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	// reserve stock first so payment never succeeds on an unfillable order
	adjusted := make([]*catalog.Product, 0, len(o.Items))
	for _, item := range o.Items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			s.rollbackStock(ctx, adjusted, o)
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product no longer exists: "+item.SKU)
		}
		if err := product.AdjustStock(-item.Quantity); err != nil {
			s.rollbackStock(ctx, adjusted, o)
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock for "+item.SKU)
		}
		if err := s.productRepo.Save(ctx, product); err != nil {
			s.rollbackStock(ctx, adjusted, o)
			s.logger.Error("Failed to reserve stock", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to reserve stock")
		}
		adjusted = append(adjusted, product)
	}

	if err := o.MarkPaid(paymentMethod, paymentRef); err != nil {
		s.rollbackStock(ctx, adjusted, o)
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.rollbackStock(ctx, adjusted, o)
		s.logger.Error("Failed to save order", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update order")
	}

	s.recorder.Record(ctx, "order", o.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	s.logger.Info("Order paid",
		zap.String("order_id", id.String()),
		zap.String("payment_method", paymentMethod))
	return toOrderDTO(o), nil
}

// Fulfil ships the order
func (s *OrderService) Fulfil(ctx context.Context, id uuid.UUID, trackingNumber string) (*OrderDTO, error) {
	return s.transition(ctx, id, func(o *order.Order) error {
		return o.Fulfil(trackingNumber)
	})
}

// Complete closes out a fulfilled order
func (s *OrderService) Complete(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	return s.transition(ctx, id, func(o *order.Order) error {
		return o.Complete()
	})
}

// Cancel cancels a pending or paid order, restocking paid items
func (s *OrderService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*OrderDTO, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	wasPaid := o.Status == order.OrderStatusPaid
	if err := o.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.logger.Error("Failed to save order", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update order")
	}
	if wasPaid {
		s.restock(ctx, o)
	}

	s.recorder.Record(ctx, "order", o.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	s.logger.Info("Order cancelled", zap.String("order_id", id.String()))
	return toOrderDTO(o), nil
}

// Refund refunds a paid, fulfilled or completed order
func (s *OrderService) Refund(ctx context.Context, id uuid.UUID, reason string) (*OrderDTO, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Refund(reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.logger.Error("Failed to save order", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update order")
	}

	s.recorder.Record(ctx, "order", o.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	s.logger.Info("Order refunded", zap.String("order_id", id.String()))
	return toOrderDTO(o), nil
}

// SetStatus drives the status machine by name, used by bulk operations
// and automation rules
func (s *OrderService) SetStatus(ctx context.Context, id uuid.UUID, status order.OrderStatus) (*OrderDTO, error) {
	switch status {
	case order.OrderStatusPaid:
		return s.MarkPaid(ctx, id, "manual", "")
	case order.OrderStatusFulfilled:
		return s.Fulfil(ctx, id, "")
	case order.OrderStatusCompleted:
		return s.Complete(ctx, id)
	case order.OrderStatusCancelled:
		return s.Cancel(ctx, id, "")
	case order.OrderStatusRefunded:
		return s.Refund(ctx, id, "")
	default:
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+string(status))
	}
}

func (s *OrderService) transition(ctx context.Context, id uuid.UUID, fn func(*order.Order) error) (*OrderDTO, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.logger.Error("Failed to save order", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update order")
	}
	s.recorder.Record(ctx, "order", o.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	return toOrderDTO(o), nil
}

// restock returns item quantities to inventory, best effort
func (s *OrderService) restock(ctx context.Context, o *order.Order) {
	for _, item := range o.Items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			s.logger.Warn("Restock skipped, product missing",
				zap.String("sku", item.SKU), zap.Error(err))
			continue
		}
		if err := product.AdjustStock(item.Quantity); err == nil {
			if err := s.productRepo.Save(ctx, product); err != nil {
				s.logger.Warn("Restock save failed", zap.String("sku", item.SKU), zap.Error(err))
			}
		}
	}
}

func (s *OrderService) rollbackStock(ctx context.Context, adjusted []*catalog.Product, o *order.Order) {
	for _, product := range adjusted {
		for _, item := range o.Items {
			if item.ProductID == product.ID {
				if err := product.AdjustStock(item.Quantity); err == nil {
					if err := s.productRepo.Save(ctx, product); err != nil {
						s.logger.Warn("Stock rollback save failed",
							zap.String("sku", product.SKU), zap.Error(err))
					}
				}
				break
			}
		}
	}
}

func (s *OrderService) findOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
		}
		s.logger.Error("Failed to find order", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find order")
	}
	return o, nil
}

func toOrderDTO(o *order.Order) *OrderDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		}
	}
	return &OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		TaxAmount:       o.TaxAmount,
		Total:           o.Total,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		Items:           items,
		PaidAt:          o.PaidAt,
		FulfilledAt:     o.FulfilledAt,
		CompletedAt:     o.CompletedAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
