package bulk

import (
	"context"
	"testing"

	"github.com/google/uuid"
	catalogapp "github.com/markethub/backend/internal/application/catalog"
	orderapp "github.com/markethub/backend/internal/application/order"
	"github.com/markethub/backend/internal/domain/bulk"
	"github.com/markethub/backend/internal/domain/catalog"
	"github.com/markethub/backend/internal/domain/order"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockOperationRepository struct {
	mock.Mock
}

func (m *MockOperationRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.BulkOperation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulk.BulkOperation), args.Error(1)
}

func (m *MockOperationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]bulk.BulkOperation, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]bulk.BulkOperation), args.Error(1)
}

func (m *MockOperationRepository) Save(ctx context.Context, op *bulk.BulkOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockOperationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOperationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOperationRepository) FindByStatus(ctx context.Context, status bulk.OperationStatus, filter shared.Filter) (shared.Paginated[bulk.BulkOperation], error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).(shared.Paginated[bulk.BulkOperation]), args.Error(1)
}

func (m *MockOperationRepository) FindRecent(ctx context.Context, limit int) ([]bulk.BulkOperation, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]bulk.BulkOperation), args.Error(1)
}

type MockProductActions struct {
	mock.Mock
}

func (m *MockProductActions) Update(ctx context.Context, input catalogapp.UpdateProductInput) (*catalogapp.ProductDTO, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductDTO), args.Error(1)
}

func (m *MockProductActions) SetStatus(ctx context.Context, id uuid.UUID, status catalog.ProductStatus) (*catalogapp.ProductDTO, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductDTO), args.Error(1)
}

func (m *MockProductActions) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*catalogapp.ProductDTO, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductDTO), args.Error(1)
}

type MockOrderActions struct {
	mock.Mock
}

func (m *MockOrderActions) SetStatus(ctx context.Context, id uuid.UUID, status order.OrderStatus) (*orderapp.OrderDTO, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderapp.OrderDTO), args.Error(1)
}

func TestHandler_Submit_ProductSetStatus(t *testing.T) {
	repo := new(MockOperationRepository)
	products := new(MockProductActions)
	handler := NewHandler(repo, products, nil, zap.NewNop())

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	repo.On("Save", mock.Anything, mock.AnythingOfType("*bulk.BulkOperation")).Return(nil)
	products.On("SetStatus", mock.Anything, mock.Anything, catalog.ProductStatusInactive).
		Return(&catalogapp.ProductDTO{}, nil)

	dto, err := handler.Submit(context.Background(), SubmitInput{
		Action:  "product_set_status",
		ItemIDs: ids,
		Payload: `{"status":"inactive"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, "completed", dto.Status)
	assert.Equal(t, 3, dto.TotalCount)
	assert.Equal(t, 3, dto.SuccessCount)
	assert.Equal(t, 0, dto.FailureCount)
	products.AssertNumberOfCalls(t, "SetStatus", 3)
	repo.AssertNumberOfCalls(t, "Save", 2)
}

func TestHandler_Submit_ContinuesPastItemFailures(t *testing.T) {
	repo := new(MockOperationRepository)
	products := new(MockProductActions)
	handler := NewHandler(repo, products, nil, zap.NewNop())

	good := uuid.New()
	bad := uuid.New()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	products.On("AdjustStock", mock.Anything, good, -5).Return(&catalogapp.ProductDTO{}, nil)
	products.On("AdjustStock", mock.Anything, bad, -5).
		Return(nil, shared.NewDomainError("INSUFFICIENT_STOCK", "Stock cannot go negative"))

	dto, err := handler.Submit(context.Background(), SubmitInput{
		Action:  "product_adjust_stock",
		ItemIDs: []uuid.UUID{bad, good},
		Payload: `{"delta":"-5"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, "completed_with_errors", dto.Status)
	assert.Equal(t, 1, dto.SuccessCount)
	assert.Equal(t, 1, dto.FailureCount)
	require.Len(t, dto.Results, 2)
	assert.False(t, dto.Results[0].Success)
	assert.Contains(t, dto.Results[0].Error, "Stock cannot go negative")
	assert.True(t, dto.Results[1].Success)
}

func TestHandler_Submit_AllItemsFail(t *testing.T) {
	repo := new(MockOperationRepository)
	orders := new(MockOrderActions)
	handler := NewHandler(repo, nil, orders, zap.NewNop())

	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	orders.On("SetStatus", mock.Anything, mock.Anything, order.OrderStatusPaid).
		Return(nil, shared.NewDomainError("INVALID_TRANSITION", "Cannot transition"))

	dto, err := handler.Submit(context.Background(), SubmitInput{
		Action:  "order_set_status",
		ItemIDs: []uuid.UUID{uuid.New(), uuid.New()},
		Payload: `{"status":"paid"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, "failed", dto.Status)
	assert.Equal(t, 0, dto.SuccessCount)
	assert.Equal(t, 2, dto.FailureCount)
}

func TestHandler_Submit_AdjustPrice(t *testing.T) {
	repo := new(MockOperationRepository)
	products := new(MockProductActions)
	handler := NewHandler(repo, products, nil, zap.NewNop())

	id := uuid.New()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	products.On("Update", mock.Anything, mock.MatchedBy(func(input catalogapp.UpdateProductInput) bool {
		return input.ID == id && input.Price != nil && input.Price.Equal(decimal.NewFromFloat(19.99))
	})).Return(&catalogapp.ProductDTO{}, nil)

	dto, err := handler.Submit(context.Background(), SubmitInput{
		Action:  "product_adjust_price",
		ItemIDs: []uuid.UUID{id},
		Payload: `{"price":"19.99"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, "completed", dto.Status)
	products.AssertExpectations(t)
}

func TestHandler_Submit_UnknownAction(t *testing.T) {
	handler := NewHandler(new(MockOperationRepository), nil, nil, zap.NewNop())

	_, err := handler.Submit(context.Background(), SubmitInput{
		Action:  "product_delete_all",
		ItemIDs: []uuid.UUID{uuid.New()},
	})

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ACTION", domainErr.Code)
}

func TestHandler_Submit_EmptyBatch(t *testing.T) {
	handler := NewHandler(new(MockOperationRepository), nil, nil, zap.NewNop())

	_, err := handler.Submit(context.Background(), SubmitInput{
		Action:  "product_set_status",
		ItemIDs: nil,
		Payload: `{"status":"inactive"}`,
	})

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "EMPTY_BATCH", domainErr.Code)
}
