package mobile

import (
	"context"

	"github.com/markethub/backend/internal/domain/shared"
)

// ScreenConfigRepository defines persistence operations for screen configs
type ScreenConfigRepository interface {
	shared.Repository[ScreenConfig]

	FindByScreenKey(ctx context.Context, screenKey string) (*ScreenConfig, error)
	FindPublished(ctx context.Context) ([]ScreenConfig, error)
	ExistsByScreenKey(ctx context.Context, screenKey string) (bool, error)
}
