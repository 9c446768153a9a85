package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/markethub/backend/internal/domain/shared"
)

// Category represents a flat storefront category
type Category struct {
	shared.BaseAggregateRoot
	Slug      string `gorm:"type:varchar(80);not null;uniqueIndex"`
	Name      string `gorm:"type:varchar(100);not null"`
	SortOrder int    `gorm:"not null;default:0"`
	Enabled   bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new enabled category
func NewCategory(slug, name string) (*Category, error) {
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name must be between 1 and 100 characters")
	}

	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Slug:              strings.ToLower(slug),
		Name:              name,
		Enabled:           true,
	}, nil
}

// Update updates the category name and sort order
func (c *Category) Update(name string, sortOrder int) error {
	if name == "" || len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name must be between 1 and 100 characters")
	}
	c.Name = name
	c.SortOrder = sortOrder
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Enable enables the category
func (c *Category) Enable() {
	c.Enabled = true
	c.Touch()
	c.IncrementVersion()
}

// Disable disables the category
func (c *Category) Disable() {
	c.Enabled = false
	c.Touch()
	c.IncrementVersion()
}

// Slugify derives a URL-safe slug from a display name. Diacritics fold
// to their ASCII base characters; any other run of non-alphanumerics
// collapses to a single hyphen.
func Slugify(name string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}

	slug := b.String()
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	return slug
}

func validateSlug(slug string) error {
	if slug == "" || len(slug) > 80 {
		return shared.NewDomainError("INVALID_SLUG", "Category slug must be between 1 and 80 characters")
	}
	for _, r := range slug {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-') {
			return shared.NewDomainError("INVALID_SLUG", "Category slug can only contain letters, numbers, and hyphens")
		}
	}
	return nil
}
