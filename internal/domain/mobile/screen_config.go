package mobile

import (
	"encoding/json"
	"regexp"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
)

// ScreenStatus is the publication state of a screen configuration
type ScreenStatus string

const (
	ScreenStatusDraft     ScreenStatus = "draft"
	ScreenStatusPublished ScreenStatus = "published"
	ScreenStatusArchived  ScreenStatus = "archived"
)

var screenKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)

// ScreenConfig is a server-driven layout definition for a mobile app
// screen. Edits accumulate on a draft; Publish snapshots the draft as
// the live version and bumps PublishedVersion.
type ScreenConfig struct {
	shared.BaseAggregateRoot
	ScreenKey        string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title            string       `gorm:"type:varchar(100);not null"`
	Status           ScreenStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	DraftLayout      string       `gorm:"type:jsonb;default:'{}'"`
	PublishedLayout  string       `gorm:"type:jsonb;default:'{}'"`
	PublishedVersion int          `gorm:"not null;default:0"`
	PublishedAt      *time.Time
	Theme            string `gorm:"type:varchar(30);default:'default'"`
	MinAppVersion    string `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (ScreenConfig) TableName() string {
	return "mobile_screen_configs"
}

// NewScreenConfig creates a draft screen configuration
func NewScreenConfig(screenKey, title string) (*ScreenConfig, error) {
	if !screenKeyPattern.MatchString(screenKey) {
		return nil, shared.NewDomainError("INVALID_SCREEN_KEY",
			"Screen key must be lowercase letters, digits and underscores, 2-50 characters")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Screen title cannot be empty")
	}

	return &ScreenConfig{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ScreenKey:         screenKey,
		Title:             title,
		Status:            ScreenStatusDraft,
		DraftLayout:       "{}",
		PublishedLayout:   "{}",
		Theme:             "default",
	}, nil
}

// SetTheme changes the visual theme applied to the screen
func (s *ScreenConfig) SetTheme(theme string) error {
	if theme == "" {
		return shared.NewDomainError("INVALID_THEME", "Theme cannot be empty")
	}
	s.Theme = theme
	s.Touch()
	s.IncrementVersion()
	return nil
}

// UpdateDraft replaces the draft layout. Published screens keep serving
// the published layout while the draft changes.
func (s *ScreenConfig) UpdateDraft(layout string) error {
	if s.Status == ScreenStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Archived screens cannot be edited")
	}
	if layout == "" {
		layout = "{}"
	}
	if !json.Valid([]byte(layout)) {
		return shared.NewDomainError("INVALID_FORMAT", "Layout must be valid JSON")
	}
	s.DraftLayout = layout
	s.Touch()
	s.IncrementVersion()
	return nil
}

// SetTitle renames the screen
func (s *ScreenConfig) SetTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Screen title cannot be empty")
	}
	s.Title = title
	s.Touch()
	s.IncrementVersion()
	return nil
}

// SetMinAppVersion sets the minimum client version this screen targets
func (s *ScreenConfig) SetMinAppVersion(version string) {
	s.MinAppVersion = version
	s.Touch()
	s.IncrementVersion()
}

// Publish promotes the current draft to the live layout
func (s *ScreenConfig) Publish() error {
	if s.Status == ScreenStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Archived screens cannot be published")
	}
	now := time.Now()
	s.PublishedLayout = s.DraftLayout
	s.PublishedVersion++
	s.PublishedAt = &now
	s.Status = ScreenStatusPublished
	s.UpdatedAt = now
	s.IncrementVersion()
	return nil
}

// Unpublish moves a published screen back to draft. Clients stop
// receiving it; the draft layout is kept for further edits.
func (s *ScreenConfig) Unpublish() error {
	if s.Status != ScreenStatusPublished {
		return shared.NewDomainError("INVALID_STATE", "Only published screens can be unpublished")
	}
	s.Status = ScreenStatusDraft
	s.Touch()
	s.IncrementVersion()
	return nil
}

// Archive retires the screen permanently
func (s *ScreenConfig) Archive() error {
	if s.Status == ScreenStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Screen is already archived")
	}
	s.Status = ScreenStatusArchived
	s.Touch()
	s.IncrementVersion()
	return nil
}

// IsLive reports whether clients should receive this screen
func (s *ScreenConfig) IsLive() bool {
	return s.Status == ScreenStatusPublished
}

// HasUnpublishedChanges reports whether the draft differs from the
// published layout
func (s *ScreenConfig) HasUnpublishedChanges() bool {
	return s.DraftLayout != s.PublishedLayout
}
