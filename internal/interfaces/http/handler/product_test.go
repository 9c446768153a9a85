package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/markethub/backend/internal/application/catalog"
	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProductRepository implements catalog.ProductRepository for testing
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, categoryID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByStatus(ctx context.Context, status catalog.ProductStatus, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindLowStock(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CountByStatus(ctx context.Context, status catalog.ProductStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) CountLowStock(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	args := m.Called(ctx, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) SaveBatch(ctx context.Context, products []*catalog.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

// MockCategoryRepository implements catalog.CategoryRepository for testing
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func newProductTestHandler(productRepo *MockProductRepository, categoryRepo *MockCategoryRepository) *ProductHandler {
	service := catalogapp.NewProductService(productRepo, categoryRepo, nil, zap.NewNop())
	return NewProductHandler(service)
}

func newProductTestRouter(h *ProductHandler) *gin.Engine {
	router := gin.New()
	router.POST("/catalog/products", h.Create)
	router.GET("/catalog/products", h.List)
	router.GET("/catalog/products/low-stock", h.ListLowStock)
	router.GET("/catalog/products/sku/:sku", h.GetBySKU)
	router.GET("/catalog/products/:id", h.GetByID)
	router.PUT("/catalog/products/:id", h.Update)
	router.POST("/catalog/products/:id/stock", h.AdjustStock)
	router.PUT("/catalog/products/:id/status", h.SetStatus)
	router.DELETE("/catalog/products/:id", h.Delete)
	return router
}

func mustNewProduct(t *testing.T, sku, name string, price string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(sku, name, decimal.RequireFromString(price))
	require.NoError(t, err)
	return product
}

func TestProductHandlerCreate_Success(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	productRepo.On("ExistsBySKU", mock.Anything, "TSHIRT-BLK-M").Return(false, nil)
	productRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	body := CreateProductRequest{
		SKU:           "TSHIRT-BLK-M",
		Name:          "Black T-Shirt (M)",
		Price:         29.99,
		StockQuantity: 120,
	}
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/catalog/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "TSHIRT-BLK-M", data["sku"]) // SKUs are stored uppercase
	assert.Equal(t, "Black T-Shirt (M)", data["name"])
	assert.Equal(t, float64(120), data["stock_quantity"])

	productRepo.AssertExpectations(t)
}

func TestProductHandlerCreate_DuplicateSKU(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	productRepo.On("ExistsBySKU", mock.Anything, "TSHIRT-BLK-M").Return(true, nil)

	body := CreateProductRequest{SKU: "TSHIRT-BLK-M", Name: "Black T-Shirt", Price: 29.99}
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/catalog/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
}

func TestProductHandlerCreate_InvalidBody(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	// missing required price
	payload := []byte(`{"sku":"TSHIRT-1","name":"Shirt"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/catalog/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandlerCreate_UnknownCategory(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	categoryID := uuid.New()
	productRepo.On("ExistsBySKU", mock.Anything, "TSHIRT-1").Return(false, nil)
	categoryRepo.On("FindByID", mock.Anything, categoryID).Return(nil, shared.ErrNotFound)

	categoryIDStr := categoryID.String()
	body := CreateProductRequest{
		SKU:        "TSHIRT-1",
		Name:       "Shirt",
		Price:      19.99,
		CategoryID: &categoryIDStr,
	}
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/catalog/products", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHandlerGetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		categoryRepo := new(MockCategoryRepository)
		h := newProductTestHandler(productRepo, categoryRepo)

		product := mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99")
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/catalog/products/"+product.ID.String(), nil)
		newProductTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "TSHIRT-1", data["sku"])
	})

	t.Run("invalid id", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		categoryRepo := new(MockCategoryRepository)
		h := newProductTestHandler(productRepo, categoryRepo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/catalog/products/not-a-uuid", nil)
		newProductTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		categoryRepo := new(MockCategoryRepository)
		h := newProductTestHandler(productRepo, categoryRepo)

		id := uuid.New()
		productRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/catalog/products/"+id.String(), nil)
		newProductTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProductHandlerGetBySKU(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	product := mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99")
	productRepo.On("FindBySKU", mock.Anything, "TSHIRT-1").Return(product, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/catalog/products/sku/TSHIRT-1", nil)
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, product.ID.String(), data["id"])
}

func TestProductHandlerList(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	products := []catalog.Product{
		*mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99"),
		*mustNewProduct(t, "TSHIRT-2", "Other Shirt", "24.99"),
	}
	productRepo.On("FindAll", mock.Anything, mock.Anything).Return(products, nil)
	productRepo.On("Count", mock.Anything, mock.Anything).Return(int64(2), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/catalog/products?page=1&page_size=20", nil)
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)

	items := resp.Data.([]interface{})
	assert.Len(t, items, 2)
}

func TestProductHandlerList_StatusFilter(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	productRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["status"] == "archived"
	})).Return([]catalog.Product{}, nil)
	productRepo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/catalog/products?status=archived", nil)
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	productRepo.AssertExpectations(t)
}

func TestProductHandlerListLowStock(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	low := mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99")
	productRepo.On("FindLowStock", mock.Anything, mock.Anything).Return([]catalog.Product{*low}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/catalog/products/low-stock", nil)
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp.Data.([]interface{})
	assert.Len(t, items, 1)
}

func TestProductHandlerUpdate(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	product := mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99")
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	newName := "Renamed Shirt"
	newPrice := 24.99
	body := UpdateProductRequest{Name: &newName, Price: &newPrice}
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/catalog/products/"+product.ID.String(), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Renamed Shirt", data["name"])
	assert.Equal(t, "24.99", data["price"])
}

func TestProductHandlerAdjustStock(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		categoryRepo := new(MockCategoryRepository)
		h := newProductTestHandler(productRepo, categoryRepo)

		product := mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99")
		require.NoError(t, product.AdjustStock(10))
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		productRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		payload, _ := json.Marshal(AdjustStockRequest{Delta: -5})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/catalog/products/"+product.ID.String()+"/stock", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		newProductTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(5), data["stock_quantity"])
	})

	t.Run("insufficient stock", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		categoryRepo := new(MockCategoryRepository)
		h := newProductTestHandler(productRepo, categoryRepo)

		product := mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99")
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		payload, _ := json.Marshal(AdjustStockRequest{Delta: -5})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/catalog/products/"+product.ID.String()+"/stock", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		newProductTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInsufficientStock, resp.Error.Code)
	})
}

func TestProductHandlerSetStatus(t *testing.T) {
	t.Run("archive", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		categoryRepo := new(MockCategoryRepository)
		h := newProductTestHandler(productRepo, categoryRepo)

		product := mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99")
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		productRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		payload, _ := json.Marshal(SetProductStatusRequest{Status: "archived"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/catalog/products/"+product.ID.String()+"/status", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		newProductTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "archived", data["status"])
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		categoryRepo := new(MockCategoryRepository)
		h := newProductTestHandler(productRepo, categoryRepo)

		payload, _ := json.Marshal(SetProductStatusRequest{Status: "discontinued"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/catalog/products/"+uuid.NewString()+"/status", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		newProductTestRouter(h).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProductHandlerDelete(t *testing.T) {
	productRepo := new(MockProductRepository)
	categoryRepo := new(MockCategoryRepository)
	h := newProductTestHandler(productRepo, categoryRepo)

	product := mustNewProduct(t, "TSHIRT-1", "Shirt", "19.99")
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("Delete", mock.Anything, product.ID).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/catalog/products/"+product.ID.String(), nil)
	newProductTestRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	productRepo.AssertExpectations(t)
}
