package mobile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/appctx"
	appsync "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/mobile"
	"github.com/markethub/backend/internal/domain/shared"
	domainsync "github.com/markethub/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// ScreenService manages server-driven mobile screen configurations
type ScreenService struct {
	repo     mobile.ScreenConfigRepository
	recorder *appsync.Recorder
	logger   *zap.Logger
}

// NewScreenService creates a new screen configuration service
func NewScreenService(
	repo mobile.ScreenConfigRepository,
	recorder *appsync.Recorder,
	logger *zap.Logger,
) *ScreenService {
	return &ScreenService{repo: repo, recorder: recorder, logger: logger}
}

// CreateScreenInput carries data for creating a screen configuration
type CreateScreenInput struct {
	ScreenKey     string `json:"screen_key" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Layout        string `json:"layout"`
	Theme         string `json:"theme"`
	MinAppVersion string `json:"min_app_version"`
}

// UpdateScreenInput carries partial updates for a screen configuration
type UpdateScreenInput struct {
	Title         *string `json:"title"`
	Layout        *string `json:"layout"`
	Theme         *string `json:"theme"`
	MinAppVersion *string `json:"min_app_version"`
}

// ScreenDTO represents a screen configuration for the admin API
type ScreenDTO struct {
	ID                    uuid.UUID  `json:"id"`
	ScreenKey             string     `json:"screen_key"`
	Title                 string     `json:"title"`
	Status                string     `json:"status"`
	DraftLayout           string     `json:"draft_layout"`
	PublishedLayout       string     `json:"published_layout"`
	PublishedVersion      int        `json:"published_version"`
	PublishedAt           *time.Time `json:"published_at,omitempty"`
	Theme                 string     `json:"theme"`
	MinAppVersion         string     `json:"min_app_version,omitempty"`
	HasUnpublishedChanges bool       `json:"has_unpublished_changes"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// LiveScreenDTO is the trimmed representation served to mobile clients
type LiveScreenDTO struct {
	ScreenKey     string `json:"screen_key"`
	Title         string `json:"title"`
	Layout        string `json:"layout"`
	Version       int    `json:"version"`
	Theme         string `json:"theme"`
	MinAppVersion string `json:"min_app_version,omitempty"`
}

// Create registers a new draft screen configuration
func (s *ScreenService) Create(ctx context.Context, input CreateScreenInput) (*ScreenDTO, error) {
	exists, err := s.repo.ExistsByScreenKey(ctx, input.ScreenKey)
	if err != nil {
		s.logger.Error("Failed to check screen key", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create screen")
	}
	if exists {
		return nil, shared.NewDomainError("SCREEN_KEY_EXISTS", "Screen key already in use: "+input.ScreenKey)
	}

	config, err := mobile.NewScreenConfig(input.ScreenKey, input.Title)
	if err != nil {
		return nil, err
	}
	if input.Layout != "" {
		if err := config.UpdateDraft(input.Layout); err != nil {
			return nil, err
		}
	}
	if input.Theme != "" {
		if err := config.SetTheme(input.Theme); err != nil {
			return nil, err
		}
	}
	if input.MinAppVersion != "" {
		config.SetMinAppVersion(input.MinAppVersion)
	}

	if err := s.repo.Save(ctx, config); err != nil {
		s.logger.Error("Failed to save screen config", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create screen")
	}

	s.recorder.Record(ctx, "mobile_screen", config.ID, domainsync.OpCreate, appctx.Actor(ctx))
	s.logger.Info("Screen config created", zap.String("screen_key", config.ScreenKey))
	return toScreenDTO(config), nil
}

// GetByID retrieves a screen configuration by ID
func (s *ScreenService) GetByID(ctx context.Context, id uuid.UUID) (*ScreenDTO, error) {
	config, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toScreenDTO(config), nil
}

// GetByScreenKey retrieves a screen configuration by its key
func (s *ScreenService) GetByScreenKey(ctx context.Context, screenKey string) (*ScreenDTO, error) {
	config, err := s.repo.FindByScreenKey(ctx, screenKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SCREEN_NOT_FOUND", "Screen not found: "+screenKey)
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find screen")
	}
	return toScreenDTO(config), nil
}

// List retrieves screen configurations with pagination
func (s *ScreenService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ScreenDTO], error) {
	filter.Normalize()

	configs, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list screens", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list screens")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list screens")
	}

	dtos := make([]ScreenDTO, len(configs))
	for i := range configs {
		dtos[i] = *toScreenDTO(&configs[i])
	}
	result := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListLive returns the published screens served to mobile clients
func (s *ScreenService) ListLive(ctx context.Context) ([]LiveScreenDTO, error) {
	configs, err := s.repo.FindPublished(ctx)
	if err != nil {
		s.logger.Error("Failed to list published screens", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list screens")
	}

	dtos := make([]LiveScreenDTO, len(configs))
	for i := range configs {
		dtos[i] = LiveScreenDTO{
			ScreenKey:     configs[i].ScreenKey,
			Title:         configs[i].Title,
			Layout:        configs[i].PublishedLayout,
			Version:       configs[i].PublishedVersion,
			Theme:         configs[i].Theme,
			MinAppVersion: configs[i].MinAppVersion,
		}
	}
	return dtos, nil
}

// Update applies partial changes to the draft of a screen configuration
func (s *ScreenService) Update(ctx context.Context, id uuid.UUID, input UpdateScreenInput) (*ScreenDTO, error) {
	config, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if err := config.SetTitle(*input.Title); err != nil {
			return nil, err
		}
	}
	if input.Layout != nil {
		if err := config.UpdateDraft(*input.Layout); err != nil {
			return nil, err
		}
	}
	if input.Theme != nil {
		if err := config.SetTheme(*input.Theme); err != nil {
			return nil, err
		}
	}
	if input.MinAppVersion != nil {
		config.SetMinAppVersion(*input.MinAppVersion)
	}

	if err := s.repo.Save(ctx, config); err != nil {
		s.logger.Error("Failed to save screen config", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update screen")
	}

	s.recorder.Record(ctx, "mobile_screen", config.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	return toScreenDTO(config), nil
}

// Publish promotes the draft layout to live
func (s *ScreenService) Publish(ctx context.Context, id uuid.UUID) (*ScreenDTO, error) {
	return s.transition(ctx, id, (*mobile.ScreenConfig).Publish)
}

// Unpublish takes a published screen off the air
func (s *ScreenService) Unpublish(ctx context.Context, id uuid.UUID) (*ScreenDTO, error) {
	return s.transition(ctx, id, (*mobile.ScreenConfig).Unpublish)
}

// Archive retires a screen permanently
func (s *ScreenService) Archive(ctx context.Context, id uuid.UUID) (*ScreenDTO, error) {
	return s.transition(ctx, id, (*mobile.ScreenConfig).Archive)
}

// Delete removes a screen configuration
func (s *ScreenService) Delete(ctx context.Context, id uuid.UUID) error {
	config, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if config.IsLive() {
		return shared.NewDomainError("SCREEN_LIVE", "Published screens must be unpublished before deletion")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete screen config", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete screen")
	}
	s.recorder.Record(ctx, "mobile_screen", id, domainsync.OpDelete, appctx.Actor(ctx))
	return nil
}

func (s *ScreenService) transition(ctx context.Context, id uuid.UUID, fn func(*mobile.ScreenConfig) error) (*ScreenDTO, error) {
	config, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(config); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, config); err != nil {
		s.logger.Error("Failed to save screen config", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update screen")
	}
	s.recorder.Record(ctx, "mobile_screen", config.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	return toScreenDTO(config), nil
}

func (s *ScreenService) find(ctx context.Context, id uuid.UUID) (*mobile.ScreenConfig, error) {
	config, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SCREEN_NOT_FOUND", "Screen not found")
		}
		s.logger.Error("Failed to find screen config", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find screen")
	}
	return config, nil
}

func toScreenDTO(c *mobile.ScreenConfig) *ScreenDTO {
	return &ScreenDTO{
		ID:                    c.ID,
		ScreenKey:             c.ScreenKey,
		Title:                 c.Title,
		Status:                string(c.Status),
		DraftLayout:           c.DraftLayout,
		PublishedLayout:       c.PublishedLayout,
		PublishedVersion:      c.PublishedVersion,
		PublishedAt:           c.PublishedAt,
		Theme:                 c.Theme,
		MinAppVersion:         c.MinAppVersion,
		HasUnpublishedChanges: c.HasUnpublishedChanges(),
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}
