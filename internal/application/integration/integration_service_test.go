package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/integration"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockIntegrationRepository struct {
	mock.Mock
}

func (m *MockIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]integration.Integration, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) Save(ctx context.Context, itg *integration.Integration) error {
	args := m.Called(ctx, itg)
	return args.Error(0)
}

func (m *MockIntegrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIntegrationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIntegrationRepository) FindByProvider(ctx context.Context, provider integration.Provider) ([]integration.Integration, error) {
	args := m.Called(ctx, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindByStatus(ctx context.Context, status integration.IntegrationStatus) ([]integration.Integration, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindSyncable(ctx context.Context) ([]integration.Integration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) CountByStatus(ctx context.Context) (map[integration.IntegrationStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[integration.IntegrationStatus]int64), args.Error(1)
}

func newTestService(repo *MockIntegrationRepository) *IntegrationService {
	return NewIntegrationService(repo, nil, zap.NewNop())
}

func TestIntegrationService_Create(t *testing.T) {
	repo := new(MockIntegrationRepository)
	service := newTestService(repo)

	repo.On("Save", mock.Anything, mock.AnythingOfType("*integration.Integration")).Return(nil)

	dto, err := service.Create(context.Background(), "Main store", integration.ProviderShopify)

	require.NoError(t, err)
	assert.Equal(t, "shopify", dto.Provider)
	assert.Equal(t, "disconnected", dto.Status)
	assert.False(t, dto.HasCredentials)
	repo.AssertExpectations(t)
}

func TestIntegrationService_Create_UnknownProvider(t *testing.T) {
	repo := new(MockIntegrationRepository)
	service := newTestService(repo)

	_, err := service.Create(context.Background(), "Mystery", integration.Provider("fax"))

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_PROVIDER", domainErr.Code)
}

func TestIntegrationService_TestConnection_Success(t *testing.T) {
	repo := new(MockIntegrationRepository)
	service := newTestService(repo)

	itg, err := integration.NewIntegration("Stripe payments", integration.ProviderStripe)
	require.NoError(t, err)
	require.NoError(t, itg.SetCredentials(map[string]string{"api_key": "sk_test_123"}))

	repo.On("FindByID", mock.Anything, itg.ID).Return(itg, nil)
	repo.On("Save", mock.Anything, itg).Return(nil)

	dto, err := service.TestConnection(context.Background(), itg.ID)

	require.NoError(t, err)
	assert.Equal(t, "connected", dto.Status)
	repo.AssertExpectations(t)
}

func TestIntegrationService_TestConnection_MissingFields(t *testing.T) {
	repo := new(MockIntegrationRepository)
	service := newTestService(repo)

	itg, err := integration.NewIntegration("Mailer", integration.ProviderMailchimp)
	require.NoError(t, err)
	require.NoError(t, itg.SetCredentials(map[string]string{"api_key": "abc"}))

	repo.On("FindByID", mock.Anything, itg.ID).Return(itg, nil)
	repo.On("Save", mock.Anything, itg).Return(nil)

	_, err = service.TestConnection(context.Background(), itg.ID)

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	assert.Contains(t, domainErr.Message, "server_prefix")
	assert.Equal(t, integration.IntegrationStatusError, itg.Status)
}

func TestIntegrationService_TestConnection_NoCredentials(t *testing.T) {
	repo := new(MockIntegrationRepository)
	service := newTestService(repo)

	itg, err := integration.NewIntegration("Webhook", integration.ProviderWebhook)
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, itg.ID).Return(itg, nil)

	_, err = service.TestConnection(context.Background(), itg.ID)

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "NO_CREDENTIALS", domainErr.Code)
}

func TestIntegrationService_RecordSync_FailureSetsError(t *testing.T) {
	repo := new(MockIntegrationRepository)
	service := newTestService(repo)

	itg, err := integration.NewIntegration("Ads", integration.ProviderGoogleAds)
	require.NoError(t, err)

	repo.On("FindByID", mock.Anything, itg.ID).Return(itg, nil)
	repo.On("Save", mock.Anything, itg).Return(nil)

	dto, err := service.RecordSync(context.Background(), itg.ID, integration.SyncResultFailed, "quota exceeded")

	require.NoError(t, err)
	assert.Equal(t, "error", dto.Status)
	assert.Equal(t, "quota exceeded", dto.LastError)
	assert.Equal(t, int64(1), dto.SyncCount)
}

func TestIntegrationService_NotFound(t *testing.T) {
	repo := new(MockIntegrationRepository)
	service := newTestService(repo)

	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := service.GetByID(context.Background(), id)

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INTEGRATION_NOT_FOUND", domainErr.Code)
}
