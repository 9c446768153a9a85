package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/markethub/backend/internal/application/catalog"
	"github.com/markethub/backend/internal/domain/catalog"
)

// ProductHandler handles product management endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// CreateProductRequest represents a request to create a product
// @Description Request body for creating a new product
type CreateProductRequest struct {
	SKU               string   `json:"sku" binding:"required,min=1,max=64" example:"TSHIRT-BLK-M"`
	Name              string   `json:"name" binding:"required,min=1,max=200" example:"Black T-Shirt (M)"`
	Description       string   `json:"description" binding:"max=5000" example:"100% cotton"`
	Price             float64  `json:"price" binding:"required,gt=0" example:"29.99"`
	CompareAtPrice    *float64 `json:"compare_at_price" binding:"omitempty,gt=0" example:"39.99"`
	Cost              *float64 `json:"cost" binding:"omitempty,gte=0" example:"12.50"`
	CategoryID        *string  `json:"category_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	StockQuantity     int      `json:"stock_quantity" binding:"gte=0" example:"120"`
	LowStockThreshold *int     `json:"low_stock_threshold" binding:"omitempty,gte=0" example:"10"`
	Attributes        string   `json:"attributes" example:"{\"color\":\"black\",\"size\":\"M\"}"`
	ImageURLs         string   `json:"image_urls" example:"[\"https://cdn.example.com/tshirt.jpg\"]"`
}

// UpdateProductRequest represents a request to update a product
// @Description Request body for updating a product; omitted fields are left unchanged
type UpdateProductRequest struct {
	Name           *string  `json:"name" binding:"omitempty,min=1,max=200" example:"Black T-Shirt (M)"`
	Description    *string  `json:"description" binding:"omitempty,max=5000"`
	Price          *float64 `json:"price" binding:"omitempty,gt=0" example:"27.99"`
	CompareAtPrice *float64 `json:"compare_at_price" binding:"omitempty,gt=0"`
	Cost           *float64 `json:"cost" binding:"omitempty,gte=0"`
	CategoryID     *string  `json:"category_id"`
	Attributes     *string  `json:"attributes"`
	ImageURLs      *string  `json:"image_urls"`
}

// AdjustStockRequest represents a relative stock adjustment
// @Description Request body for adjusting stock by a signed delta
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required" example:"-5"`
}

// SetProductStatusRequest represents a request to change product status
// @Description Request body for changing a product's lifecycle status
type SetProductStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive archived" example:"active"`
}

// Create godoc
// @Summary      Create a product
// @Description  Create a new product with pricing, stock and optional category
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body CreateProductRequest true "Product creation request"
// @Success      201 {object} dto.Response{data=catalogapp.ProductDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := catalogapp.CreateProductInput{
		SKU:               req.SKU,
		Name:              req.Name,
		Description:       req.Description,
		Price:             toDecimal(req.Price),
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		Attributes:        req.Attributes,
		ImageURLs:         req.ImageURLs,
	}
	if req.CompareAtPrice != nil {
		input.CompareAtPrice = toDecimalPtr(*req.CompareAtPrice)
	}
	if req.Cost != nil {
		input.Cost = toDecimalPtr(*req.Cost)
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			h.BadRequest(c, "Invalid category ID format")
			return
		}
		input.CategoryID = &categoryID
	}

	product, err := h.productService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, product)
}

// GetByID godoc
// @Summary      Get product by ID
// @Description  Retrieve a product by its ID
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalogapp.ProductDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// GetBySKU godoc
// @Summary      Get product by SKU
// @Description  Retrieve a product by its SKU
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        sku path string true "Product SKU"
// @Success      200 {object} dto.Response{data=catalogapp.ProductDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/sku/{sku} [get]
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	product, err := h.productService.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// List godoc
// @Summary      List products
// @Description  Retrieve a paginated product list, filterable by status and category
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        search query string false "Search in SKU and name"
// @Param        status query string false "Status filter" Enums(active, inactive, archived)
// @Param        category_id query string false "Category filter" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	filter := bindListFilter(c)
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			h.BadRequest(c, "Invalid category ID format")
			return
		}
		filter.Filters["category_id"] = id
	}

	result, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListLowStock godoc
// @Summary      List low-stock products
// @Description  Retrieve active products at or below their low-stock threshold
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductDTO}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/low-stock [get]
func (h *ProductHandler) ListLowStock(c *gin.Context) {
	filter := bindListFilter(c)

	products, err := h.productService.ListLowStock(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, products)
}

// Update godoc
// @Summary      Update a product
// @Description  Update product fields; omitted fields are left unchanged
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body UpdateProductRequest true "Product update request"
// @Success      200 {object} dto.Response{data=catalogapp.ProductDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := catalogapp.UpdateProductInput{
		ID:          productID,
		Name:        req.Name,
		Description: req.Description,
		Attributes:  req.Attributes,
		ImageURLs:   req.ImageURLs,
	}
	if req.Price != nil {
		input.Price = toDecimalPtr(*req.Price)
	}
	if req.CompareAtPrice != nil {
		input.CompareAtPrice = toDecimalPtr(*req.CompareAtPrice)
	}
	if req.Cost != nil {
		input.Cost = toDecimalPtr(*req.Cost)
	}
	if req.CategoryID != nil && *req.CategoryID != "" {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			h.BadRequest(c, "Invalid category ID format")
			return
		}
		input.CategoryID = &categoryID
	}

	product, err := h.productService.Update(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// AdjustStock godoc
// @Summary      Adjust product stock
// @Description  Apply a signed delta to the product's stock quantity. The result may not go negative.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body AdjustStockRequest true "Stock adjustment request"
// @Success      200 {object} dto.Response{data=catalogapp.ProductDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), productID, req.Delta)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// SetStatus godoc
// @Summary      Change product status
// @Description  Move a product between active, inactive and archived
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body SetProductStatusRequest true "Status change request"
// @Success      200 {object} dto.Response{data=catalogapp.ProductDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/{id}/status [put]
func (h *ProductHandler) SetStatus(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req SetProductStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.SetStatus(c.Request.Context(), productID, catalog.ProductStatus(req.Status))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete godoc
// @Summary      Delete a product
// @Description  Delete a product. Products referenced by open orders cannot be deleted.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	if err := h.productService.Delete(c.Request.Context(), productID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
