package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/markethub/backend/internal/application/order"
	"github.com/markethub/backend/internal/domain/order"
)

// OrderHandler handles order management endpoints
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderItemRequest represents one requested line item
// @Description One line item in an order creation request
type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity  int    `json:"quantity" binding:"required,gt=0" example:"2"`
}

// CreateOrderRequest represents a request to create an order
// @Description Request body for creating a new order
type CreateOrderRequest struct {
	CustomerName    string             `json:"customer_name" binding:"required,min=1,max=200" example:"Jane Doe"`
	CustomerEmail   string             `json:"customer_email" binding:"required,email" example:"jane@example.com"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingFee     float64            `json:"shipping_fee" binding:"gte=0" example:"4.99"`
	ShippingAddress string             `json:"shipping_address" binding:"max=1000" example:"1 Main St, Springfield"`
	TaxAmount       float64            `json:"tax_amount" binding:"gte=0" example:"6.20"`
}

// MarkPaidRequest represents a payment confirmation
// @Description Request body for marking an order as paid
type MarkPaidRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,min=1,max=50" example:"card"`
	PaymentRef    string `json:"payment_ref" binding:"max=200" example:"ch_3OaXYZ"`
}

// FulfilOrderRequest represents a fulfilment action
// @Description Request body for fulfilling a paid order
type FulfilOrderRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"max=100" example:"1Z999AA10123456784"`
}

// OrderReasonRequest carries the reason for a cancel or refund
// @Description Request body carrying a reason string
type OrderReasonRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Customer request"`
}

// UpdateShippingRequest represents a shipping change on a pending order
// @Description Request body for updating shipping details
type UpdateShippingRequest struct {
	ShippingFee     float64 `json:"shipping_fee" binding:"gte=0" example:"7.50"`
	ShippingAddress string  `json:"shipping_address" binding:"max=1000" example:"1 Main St, Springfield"`
}

// Create godoc
// @Summary      Create an order
// @Description  Create a pending order. Line items are priced from the current catalog and availability is checked; stock is reserved when the order is paid.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body CreateOrderRequest true "Order creation request"
// @Success      201 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]orderapp.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		items = append(items, orderapp.OrderItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.orderService.Create(c.Request.Context(), orderapp.CreateOrderInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		Items:           items,
		ShippingFee:     toDecimal(req.ShippingFee),
		ShippingAddress: req.ShippingAddress,
		TaxAmount:       toDecimal(req.TaxAmount),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID godoc
// @Summary      Get order by ID
// @Description  Retrieve an order with its line items
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// List godoc
// @Summary      List orders
// @Description  Retrieve a paginated order list, filterable by status and searchable by order number and customer
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        search query string false "Search in order number, customer name and email"
// @Param        status query string false "Status filter" Enums(pending, paid, fulfilled, completed, cancelled, refunded)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	filter := bindListFilter(c)
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}

	result, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetByNumber godoc
// @Summary      Get an order by number
// @Description  Retrieve a single order by its human-facing order number
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        number path string true "Order number" example(ORD-20250603-000123)
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/number/{number} [get]
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	result, err := h.orderService.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// UpdateShipping godoc
// @Summary      Update shipping details
// @Description  Change the shipping fee and address of a pending order; totals are recalculated
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body UpdateShippingRequest true "Shipping update"
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/shipping [put]
func (h *OrderHandler) UpdateShipping(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.UpdateShipping(c.Request.Context(), orderID, toDecimal(req.ShippingFee), req.ShippingAddress)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// StatusSummary godoc
// @Summary      Order counts by status
// @Description  Return the number of orders currently in each status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=map[string]int64}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/status-summary [get]
func (h *OrderHandler) StatusSummary(c *gin.Context) {
	summary, err := h.orderService.StatusSummary(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// MarkPaid godoc
// @Summary      Mark an order as paid
// @Description  Record payment for a pending order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body MarkPaidRequest true "Payment confirmation"
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/pay [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.MarkPaid(c.Request.Context(), orderID, req.PaymentMethod, req.PaymentRef)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Fulfil godoc
// @Summary      Fulfil an order
// @Description  Mark a paid order as shipped, optionally with a tracking number
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body FulfilOrderRequest true "Fulfilment request"
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/fulfil [post]
func (h *OrderHandler) Fulfil(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req FulfilOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.Fulfil(c.Request.Context(), orderID, req.TrackingNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Complete godoc
// @Summary      Complete an order
// @Description  Mark a fulfilled order as completed
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.orderService.Complete(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Cancel a pending or paid order and restock its items
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body OrderReasonRequest true "Cancellation reason"
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req OrderReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.Cancel(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Refund godoc
// @Summary      Refund an order
// @Description  Refund a paid, fulfilled or completed order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body OrderReasonRequest true "Refund reason"
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/refund [post]
func (h *OrderHandler) Refund(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req OrderReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.Refund(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SetStatus godoc
// @Summary      Set order status directly
// @Description  Force an order into a specific status, validating the transition
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body SetOrderStatusRequest true "Status change request"
// @Success      200 {object} dto.Response{data=orderapp.OrderDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/status [put]
func (h *OrderHandler) SetStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req SetOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.SetStatus(c.Request.Context(), orderID, order.OrderStatus(req.Status))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SetOrderStatusRequest represents a direct status change
// @Description Request body for setting an order's status
type SetOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid fulfilled completed cancelled refunded" example:"fulfilled"`
}
