package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// validTransitions maps each status to the statuses reachable from it
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusFulfilled, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusFulfilled: {OrderStatusCompleted, OrderStatusRefunded},
	OrderStatusCompleted: {OrderStatusRefunded},
	OrderStatusCancelled: {},
	OrderStatusRefunded:  {},
}

// Order represents a customer order managed through the back office
// It is the aggregate root; items are owned entities
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerName    string          `gorm:"type:varchar(100);not null"`
	CustomerEmail   string          `gorm:"type:varchar(254);not null;index"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingFee     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentMethod   string          `gorm:"type:varchar(40)"`
	PaymentRef      string          `gorm:"type:varchar(100)"`
	ShippingAddress string          `gorm:"type:text"`
	TrackingNumber  string          `gorm:"type:varchar(100)"`
	Notes           string          `gorm:"type:text"`
	PaidAt          *time.Time
	FulfilledAt     *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is a line item within an order
type OrderItem struct {
	shared.BaseEntity
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	SKU       string          `gorm:"type:varchar(50);not null"`
	Name      string          `gorm:"type:varchar(200);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity  int             `gorm:"not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrder creates a pending order with a generated order number
func NewOrder(customerName, customerEmail string) (*Order, error) {
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer name cannot be empty")
	}
	if customerEmail == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer email cannot be empty")
	}

	base := shared.NewBaseAggregateRoot()
	return &Order{
		BaseAggregateRoot: base,
		OrderNumber:       generateOrderNumber(base.ID),
		CustomerName:      customerName,
		CustomerEmail:     customerEmail,
		Status:            OrderStatusPending,
		Subtotal:          decimal.Zero,
		ShippingFee:       decimal.Zero,
		TaxAmount:         decimal.Zero,
		Total:             decimal.Zero,
	}, nil
}

// generateOrderNumber derives a human-readable number from the creation time
// and the first segment of the order ID
func generateOrderNumber(id uuid.UUID) string {
	return fmt.Sprintf("MH-%s-%s", time.Now().Format("20060102"), id.String()[:8])
}

// AddItem appends a line item and recalculates totals.
// Items can only be changed while the order is pending.
func (o *Order) AddItem(productID uuid.UUID, sku, name string, unitPrice decimal.Decimal, quantity int) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Items can only be added to pending orders")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	item := OrderItem{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    o.ID,
		ProductID:  productID,
		SKU:        sku,
		Name:       name,
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		LineTotal:  unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
	o.Items = append(o.Items, item)
	o.recalculate()
	return nil
}

// RemoveItem removes a line item by ID and recalculates totals
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Items can only be removed from pending orders")
	}
	for i, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.recalculate()
			return nil
		}
	}
	return shared.ErrNotFound
}

// SetShipping sets shipping fee and address, pending orders only
func (o *Order) SetShipping(fee decimal.Decimal, address string) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Shipping can only be changed on pending orders")
	}
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Shipping fee cannot be negative")
	}
	o.ShippingFee = fee
	o.ShippingAddress = address
	o.recalculate()
	return nil
}

// SetTax sets the tax amount, pending orders only
func (o *Order) SetTax(tax decimal.Decimal) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Tax can only be changed on pending orders")
	}
	if tax.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Tax cannot be negative")
	}
	o.TaxAmount = tax
	o.recalculate()
	return nil
}

// MarkPaid transitions the order to paid
func (o *Order) MarkPaid(paymentMethod, paymentRef string) error {
	if err := o.transition(OrderStatusPaid); err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Cannot pay for an order with no items")
	}
	now := time.Now()
	o.Status = OrderStatusPaid
	o.PaymentMethod = paymentMethod
	o.PaymentRef = paymentRef
	o.PaidAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// Fulfil transitions the order to fulfilled, recording the tracking number
func (o *Order) Fulfil(trackingNumber string) error {
	if err := o.transition(OrderStatusFulfilled); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusFulfilled
	o.TrackingNumber = trackingNumber
	o.FulfilledAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// Complete transitions the order to completed
func (o *Order) Complete() error {
	if err := o.transition(OrderStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// Cancel transitions the order to cancelled
func (o *Order) Cancel(reason string) error {
	if err := o.transition(OrderStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusCancelled
	if reason != "" {
		o.Notes = reason
	}
	o.CancelledAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// Refund transitions the order to refunded
func (o *Order) Refund(reason string) error {
	if err := o.transition(OrderStatusRefunded); err != nil {
		return err
	}
	now := time.Now()
	o.Status = OrderStatusRefunded
	if reason != "" {
		o.Notes = reason
	}
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// CanTransitionTo reports whether the status machine allows the move
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true when no further transitions are possible
func (o *Order) IsTerminal() bool {
	return len(validTransitions[o.Status]) == 0
}

func (o *Order) transition(target OrderStatus) error {
	if !o.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}
	return nil
}

func (o *Order) recalculate() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.ShippingFee).Add(o.TaxAmount)
	o.Touch()
	o.IncrementVersion()
}
