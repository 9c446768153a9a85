package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/automation"
	"github.com/markethub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormRuleRepository implements RuleRepository using GORM
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// FindByID finds an automation rule by ID
func (r *GormRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*automation.AutomationRule, error) {
	var rule automation.AutomationRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindAll finds all automation rules matching the filter
func (r *GormRuleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]automation.AutomationRule, error) {
	var rules []automation.AutomationRule
	query := r.applySearch(r.db.WithContext(ctx).Model(&automation.AutomationRule{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, RuleSortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindEnabled finds all enabled rules
func (r *GormRuleRepository) FindEnabled(ctx context.Context) ([]automation.AutomationRule, error) {
	var rules []automation.AutomationRule
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("name ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindByTrigger finds enabled rules with the given trigger type
func (r *GormRuleRepository) FindByTrigger(ctx context.Context, trigger automation.TriggerType) ([]automation.AutomationRule, error) {
	var rules []automation.AutomationRule
	if err := r.db.WithContext(ctx).
		Where("enabled = ? AND trigger = ?", true, trigger).
		Order("name ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindByEventType finds enabled event-triggered rules subscribed to the given event
func (r *GormRuleRepository) FindByEventType(ctx context.Context, eventType string) ([]automation.AutomationRule, error) {
	var rules []automation.AutomationRule
	if err := r.db.WithContext(ctx).
		Where("enabled = ? AND trigger = ? AND trigger_event = ?", true, automation.TriggerEvent, eventType).
		Order("name ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Save creates or updates a rule
func (r *GormRuleRepository) Save(ctx context.Context, rule *automation.AutomationRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// Delete deletes a rule
func (r *GormRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&automation.AutomationRule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts rules matching the filter
func (r *GormRuleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&automation.AutomationRule{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormRuleRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "enabled":
			query = query.Where("enabled = ?", value)
		case "trigger":
			query = query.Where("trigger = ?", value)
		case "target_entity":
			query = query.Where("target_entity = ?", value)
		}
	}

	return query
}

// Ensure GormRuleRepository implements RuleRepository
var _ automation.RuleRepository = (*GormRuleRepository)(nil)
