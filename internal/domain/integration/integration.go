package integration

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
)

// Provider identifies an external platform an integration connects to
type Provider string

const (
	ProviderShopify     Provider = "shopify"
	ProviderStripe      Provider = "stripe"
	ProviderMailchimp   Provider = "mailchimp"
	ProviderGoogleAds   Provider = "google_ads"
	ProviderFacebookAds Provider = "facebook_ads"
	ProviderWebhook     Provider = "webhook"
)

// IntegrationStatus is the lifecycle state of an integration
type IntegrationStatus string

const (
	IntegrationStatusDisconnected IntegrationStatus = "disconnected"
	IntegrationStatusConnected    IntegrationStatus = "connected"
	IntegrationStatusError        IntegrationStatus = "error"
)

// SyncResult is the outcome of the most recent synchronization run
type SyncResult string

const (
	SyncResultSuccess SyncResult = "success"
	SyncResultPartial SyncResult = "partial"
	SyncResultFailed  SyncResult = "failed"
)

var knownProviders = map[Provider]bool{
	ProviderShopify:     true,
	ProviderStripe:      true,
	ProviderMailchimp:   true,
	ProviderGoogleAds:   true,
	ProviderFacebookAds: true,
	ProviderWebhook:     true,
}

// Integration represents a connection to an external service.
// Credentials are write-only at the API boundary; only the stored
// hash of their presence is ever surfaced.
type Integration struct {
	shared.BaseAggregateRoot
	Name          string            `gorm:"type:varchar(100);not null"`
	Provider      Provider          `gorm:"type:varchar(30);not null;index"`
	Status        IntegrationStatus `gorm:"type:varchar(20);not null;default:'disconnected';index"`
	Credentials   string            `gorm:"type:text;column:credentials" json:"-"`
	Settings      string            `gorm:"type:jsonb;default:'{}'"`
	Enabled       bool              `gorm:"not null;default:true"`
	LastSyncAt    *time.Time
	LastSyncState SyncResult `gorm:"type:varchar(20)"`
	LastError     string     `gorm:"type:text"`
	SyncCount     int64      `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Integration) TableName() string {
	return "integrations"
}

// NewIntegration creates a disconnected integration for a known provider
func NewIntegration(name string, provider Provider) (*Integration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Integration name cannot be empty")
	}
	if !knownProviders[provider] {
		return nil, shared.NewDomainError("UNKNOWN_PROVIDER", "Unknown integration provider: "+string(provider))
	}

	return &Integration{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Provider:          provider,
		Status:            IntegrationStatusDisconnected,
		Settings:          "{}",
		Enabled:           true,
	}, nil
}

// SetCredentials stores new credentials. The raw value is persisted
// encrypted-at-rest by the database layer and never returned to clients.
func (i *Integration) SetCredentials(credentials map[string]string) error {
	if len(credentials) == 0 {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Credentials cannot be empty")
	}
	raw, err := json.Marshal(credentials)
	if err != nil {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Credentials cannot be serialized")
	}
	i.Credentials = string(raw)
	i.Touch()
	i.IncrementVersion()
	return nil
}

// HasCredentials reports whether credentials have been stored
func (i *Integration) HasCredentials() bool {
	return i.Credentials != "" && i.Credentials != "{}"
}

// CredentialMap decodes the stored credentials for internal use
func (i *Integration) CredentialMap() (map[string]string, error) {
	if !i.HasCredentials() {
		return nil, shared.NewDomainError("NO_CREDENTIALS", "Integration has no stored credentials")
	}
	var creds map[string]string
	if err := json.Unmarshal([]byte(i.Credentials), &creds); err != nil {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Stored credentials are corrupted")
	}
	return creds, nil
}

// SetSettings replaces the provider-specific settings object
func (i *Integration) SetSettings(settings string) error {
	if settings == "" {
		settings = "{}"
	}
	if !json.Valid([]byte(settings)) {
		return shared.NewDomainError("INVALID_FORMAT", "Settings must be a valid JSON object")
	}
	i.Settings = settings
	i.Touch()
	i.IncrementVersion()
	return nil
}

// MarkConnected records a successful connection test
func (i *Integration) MarkConnected() error {
	if !i.HasCredentials() {
		return shared.NewDomainError("NO_CREDENTIALS", "Cannot connect without credentials")
	}
	i.Status = IntegrationStatusConnected
	i.LastError = ""
	i.Touch()
	i.IncrementVersion()
	return nil
}

// MarkError records a failed connection test or sync
func (i *Integration) MarkError(message string) {
	i.Status = IntegrationStatusError
	i.LastError = message
	i.Touch()
	i.IncrementVersion()
}

// Disconnect clears the connection and stored credentials
func (i *Integration) Disconnect() {
	i.Status = IntegrationStatusDisconnected
	i.Credentials = ""
	i.LastError = ""
	i.Touch()
	i.IncrementVersion()
}

// RecordSync stores the outcome of a synchronization run
func (i *Integration) RecordSync(result SyncResult, errorMessage string) {
	now := time.Now()
	i.LastSyncAt = &now
	i.LastSyncState = result
	i.SyncCount++
	if result == SyncResultFailed {
		i.Status = IntegrationStatusError
		i.LastError = errorMessage
	} else {
		i.LastError = ""
	}
	i.UpdatedAt = now
	i.IncrementVersion()
}

// Enable allows the integration to participate in syncs
func (i *Integration) Enable() {
	i.Enabled = true
	i.Touch()
	i.IncrementVersion()
}

// Disable stops the integration from syncing without disconnecting it
func (i *Integration) Disable() {
	i.Enabled = false
	i.Touch()
	i.IncrementVersion()
}

// CanSync reports whether a sync run may be started
func (i *Integration) CanSync() bool {
	return i.Enabled && i.Status == IntegrationStatusConnected
}
