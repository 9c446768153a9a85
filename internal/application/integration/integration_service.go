package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/appctx"
	appsync "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/integration"
	"github.com/markethub/backend/internal/domain/shared"
	domainsync "github.com/markethub/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// requiredCredentialKeys lists the credential fields each provider
// needs before a connection test can pass
var requiredCredentialKeys = map[integration.Provider][]string{
	integration.ProviderShopify:     {"shop_domain", "access_token"},
	integration.ProviderStripe:      {"api_key"},
	integration.ProviderMailchimp:   {"api_key", "server_prefix"},
	integration.ProviderGoogleAds:   {"client_id", "client_secret", "refresh_token"},
	integration.ProviderFacebookAds: {"access_token", "ad_account_id"},
	integration.ProviderWebhook:     {"url"},
}

// IntegrationService manages external service connections
type IntegrationService struct {
	repo     integration.IntegrationRepository
	recorder *appsync.Recorder
	logger   *zap.Logger
}

// NewIntegrationService creates a new integration service
func NewIntegrationService(
	repo integration.IntegrationRepository,
	recorder *appsync.Recorder,
	logger *zap.Logger,
) *IntegrationService {
	return &IntegrationService{repo: repo, recorder: recorder, logger: logger}
}

// IntegrationDTO represents integration data returned to the HTTP
// layer. Credentials are write-only and never included.
type IntegrationDTO struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Provider       string     `json:"provider"`
	Status         string     `json:"status"`
	HasCredentials bool       `json:"has_credentials"`
	Settings       string     `json:"settings"`
	Enabled        bool       `json:"enabled"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastSyncState  string     `json:"last_sync_state,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	SyncCount      int64      `json:"sync_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Create registers a new integration
func (s *IntegrationService) Create(ctx context.Context, name string, provider integration.Provider) (*IntegrationDTO, error) {
	itg, err := integration.NewIntegration(name, provider)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, itg); err != nil {
		s.logger.Error("Failed to save integration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create integration")
	}

	s.recorder.Record(ctx, "integration", itg.ID, domainsync.OpCreate, appctx.Actor(ctx))
	s.logger.Info("Integration created",
		zap.String("integration_id", itg.ID.String()),
		zap.String("provider", string(provider)))
	return toDTO(itg), nil
}

// GetByID retrieves an integration by ID
func (s *IntegrationService) GetByID(ctx context.Context, id uuid.UUID) (*IntegrationDTO, error) {
	itg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(itg), nil
}

// List retrieves integrations, optionally filtered by provider
func (s *IntegrationService) List(ctx context.Context, provider integration.Provider, filter shared.Filter) (*shared.Paginated[IntegrationDTO], error) {
	filter.Normalize()

	var items []integration.Integration
	var err error
	if provider != "" {
		items, err = s.repo.FindByProvider(ctx, provider)
	} else {
		items, err = s.repo.FindAll(ctx, filter)
	}
	if err != nil {
		s.logger.Error("Failed to list integrations", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list integrations")
	}

	total := int64(len(items))
	if provider == "" {
		if total, err = s.repo.Count(ctx, filter); err != nil {
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list integrations")
		}
	}

	dtos := make([]IntegrationDTO, len(items))
	for i := range items {
		dtos[i] = *toDTO(&items[i])
	}
	result := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &result, nil
}

// SetCredentials stores new credentials for the integration
func (s *IntegrationService) SetCredentials(ctx context.Context, id uuid.UUID, credentials map[string]string) (*IntegrationDTO, error) {
	itg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := itg.SetCredentials(credentials); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, itg); err != nil {
		s.logger.Error("Failed to save credentials", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save credentials")
	}
	s.logger.Info("Integration credentials updated", zap.String("integration_id", id.String()))
	return toDTO(itg), nil
}

// SetSettings replaces the provider settings object
func (s *IntegrationService) SetSettings(ctx context.Context, id uuid.UUID, settings string) (*IntegrationDTO, error) {
	itg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := itg.SetSettings(settings); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, itg); err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save settings")
	}
	return toDTO(itg), nil
}

// TestConnection validates the stored credential shape for the
// provider and marks the integration connected or errored. No network
// call is made; real connectivity surfaces on the first sync.
func (s *IntegrationService) TestConnection(ctx context.Context, id uuid.UUID) (*IntegrationDTO, error) {
	itg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	creds, err := itg.CredentialMap()
	if err != nil {
		return nil, err
	}

	if missing := missingKeys(itg.Provider, creds); len(missing) > 0 {
		message := "Missing credential fields: "
		for i, key := range missing {
			if i > 0 {
				message += ", "
			}
			message += key
		}
		itg.MarkError(message)
		if saveErr := s.repo.Save(ctx, itg); saveErr != nil {
			s.logger.Error("Failed to save integration", zap.Error(saveErr))
		}
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", message)
	}

	if err := itg.MarkConnected(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, itg); err != nil {
		s.logger.Error("Failed to save integration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update integration")
	}

	s.recorder.Record(ctx, "integration", itg.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	s.logger.Info("Integration connected",
		zap.String("integration_id", id.String()),
		zap.String("provider", string(itg.Provider)))
	return toDTO(itg), nil
}

// RecordSync stores the outcome of a synchronization run
func (s *IntegrationService) RecordSync(ctx context.Context, id uuid.UUID, result integration.SyncResult, errorMessage string) (*IntegrationDTO, error) {
	itg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	itg.RecordSync(result, errorMessage)
	if err := s.repo.Save(ctx, itg); err != nil {
		s.logger.Error("Failed to record sync", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to record sync result")
	}

	s.recorder.Record(ctx, "integration", itg.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	return toDTO(itg), nil
}

// SetEnabled toggles whether the integration participates in syncs
func (s *IntegrationService) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*IntegrationDTO, error) {
	itg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if enabled {
		itg.Enable()
	} else {
		itg.Disable()
	}
	if err := s.repo.Save(ctx, itg); err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update integration")
	}
	return toDTO(itg), nil
}

// Disconnect drops the connection and stored credentials
func (s *IntegrationService) Disconnect(ctx context.Context, id uuid.UUID) (*IntegrationDTO, error) {
	itg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	itg.Disconnect()
	if err := s.repo.Save(ctx, itg); err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update integration")
	}
	s.logger.Info("Integration disconnected", zap.String("integration_id", id.String()))
	return toDTO(itg), nil
}

// Delete removes an integration
func (s *IntegrationService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete integration", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete integration")
	}
	s.recorder.Record(ctx, "integration", id, domainsync.OpDelete, appctx.Actor(ctx))
	return nil
}

func (s *IntegrationService) find(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	itg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INTEGRATION_NOT_FOUND", "Integration not found")
		}
		s.logger.Error("Failed to find integration", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find integration")
	}
	return itg, nil
}

func missingKeys(provider integration.Provider, creds map[string]string) []string {
	var missing []string
	for _, key := range requiredCredentialKeys[provider] {
		if creds[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func toDTO(i *integration.Integration) *IntegrationDTO {
	return &IntegrationDTO{
		ID:             i.ID,
		Name:           i.Name,
		Provider:       string(i.Provider),
		Status:         string(i.Status),
		HasCredentials: i.HasCredentials(),
		Settings:       i.Settings,
		Enabled:        i.Enabled,
		LastSyncAt:     i.LastSyncAt,
		LastSyncState:  string(i.LastSyncState),
		LastError:      i.LastError,
		SyncCount:      i.SyncCount,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}
