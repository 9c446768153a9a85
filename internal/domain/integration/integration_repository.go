package integration

import (
	"context"

	"github.com/markethub/backend/internal/domain/shared"
)

// IntegrationRepository defines persistence operations for integrations
type IntegrationRepository interface {
	shared.Repository[Integration]

	FindByProvider(ctx context.Context, provider Provider) ([]Integration, error)
	FindByStatus(ctx context.Context, status IntegrationStatus) ([]Integration, error)
	FindSyncable(ctx context.Context) ([]Integration, error)
	CountByStatus(ctx context.Context) (map[IntegrationStatus]int64, error)
}
