package automation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/appctx"
	appsync "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/automation"
	"github.com/markethub/backend/internal/domain/shared"
	domainsync "github.com/markethub/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// RuleService manages automation rule definitions
type RuleService struct {
	repo     automation.RuleRepository
	recorder *appsync.Recorder
	logger   *zap.Logger
}

// NewRuleService creates a new automation rule service
func NewRuleService(
	repo automation.RuleRepository,
	recorder *appsync.Recorder,
	logger *zap.Logger,
) *RuleService {
	return &RuleService{repo: repo, recorder: recorder, logger: logger}
}

// CreateRuleInput carries data for creating an automation rule
type CreateRuleInput struct {
	Name            string                 `json:"name" binding:"required"`
	Description     string                 `json:"description"`
	TargetEntity    string                 `json:"target_entity" binding:"required"`
	Trigger         string                 `json:"trigger"`
	TriggerEvent    string                 `json:"trigger_event"`
	IntervalSeconds int                    `json:"interval_seconds"`
	Conditions      []automation.Condition `json:"conditions"`
	Actions         []automation.Action    `json:"actions" binding:"required"`
}

// UpdateRuleInput carries partial updates for an automation rule
type UpdateRuleInput struct {
	Name            *string                 `json:"name"`
	Description     *string                 `json:"description"`
	TriggerEvent    *string                 `json:"trigger_event"`
	IntervalSeconds *int                    `json:"interval_seconds"`
	Conditions      *[]automation.Condition `json:"conditions"`
	Actions         *[]automation.Action    `json:"actions"`
}

// RuleDTO represents an automation rule for the HTTP layer
type RuleDTO struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description,omitempty"`
	TargetEntity    string                 `json:"target_entity"`
	Trigger         string                 `json:"trigger"`
	TriggerEvent    string                 `json:"trigger_event,omitempty"`
	IntervalSeconds int                    `json:"interval_seconds"`
	Conditions      []automation.Condition `json:"conditions"`
	Actions         []automation.Action    `json:"actions"`
	Enabled         bool                   `json:"enabled"`
	LastRunAt       *time.Time             `json:"last_run_at,omitempty"`
	RunCount        int64                  `json:"run_count"`
	MatchCount      int64                  `json:"match_count"`
	LastError       string                 `json:"last_error,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Create registers a new automation rule
func (s *RuleService) Create(ctx context.Context, input CreateRuleInput) (*RuleDTO, error) {
	rule, err := automation.NewAutomationRule(input.Name, input.TargetEntity)
	if err != nil {
		return nil, err
	}
	rule.Description = input.Description

	switch automation.TriggerType(input.Trigger) {
	case automation.TriggerEvent:
		if err := rule.SetEventTrigger(input.TriggerEvent); err != nil {
			return nil, err
		}
	case automation.TriggerInterval, "":
		if input.IntervalSeconds > 0 {
			if err := rule.SetInterval(input.IntervalSeconds); err != nil {
				return nil, err
			}
		}
	default:
		return nil, shared.NewDomainError("INVALID_TRIGGER", "Unknown trigger type: "+input.Trigger)
	}

	if err := rule.SetConditions(input.Conditions); err != nil {
		return nil, err
	}
	if err := rule.SetActions(input.Actions); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, rule); err != nil {
		s.logger.Error("Failed to save rule", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create rule")
	}

	s.recorder.Record(ctx, "automation_rule", rule.ID, domainsync.OpCreate, appctx.Actor(ctx))
	s.logger.Info("Automation rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("target", rule.TargetEntity))
	return toRuleDTO(rule)
}

// GetByID retrieves a rule by ID
func (s *RuleService) GetByID(ctx context.Context, id uuid.UUID) (*RuleDTO, error) {
	rule, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRuleDTO(rule)
}

// List retrieves rules with pagination
func (s *RuleService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[RuleDTO], error) {
	filter.Normalize()

	rules, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list rules", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list rules")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list rules")
	}

	dtos := make([]RuleDTO, 0, len(rules))
	for i := range rules {
		dto, err := toRuleDTO(&rules[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	result := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Update applies partial changes to a rule
func (s *RuleService) Update(ctx context.Context, id uuid.UUID, input UpdateRuleInput) (*RuleDTO, error) {
	rule, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, shared.NewDomainError("INVALID_NAME", "Rule name cannot be empty")
		}
		rule.Name = *input.Name
	}
	if input.Description != nil {
		rule.Description = *input.Description
	}
	if input.TriggerEvent != nil {
		if err := rule.SetEventTrigger(*input.TriggerEvent); err != nil {
			return nil, err
		}
	}
	if input.IntervalSeconds != nil {
		if err := rule.SetInterval(*input.IntervalSeconds); err != nil {
			return nil, err
		}
	}
	if input.Conditions != nil {
		if err := rule.SetConditions(*input.Conditions); err != nil {
			return nil, err
		}
	}
	if input.Actions != nil {
		if err := rule.SetActions(*input.Actions); err != nil {
			return nil, err
		}
	}
	rule.IncrementVersion()

	if err := s.repo.Save(ctx, rule); err != nil {
		s.logger.Error("Failed to save rule", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update rule")
	}

	s.recorder.Record(ctx, "automation_rule", rule.ID, domainsync.OpUpdate, appctx.Actor(ctx))
	return toRuleDTO(rule)
}

// SetEnabled turns a rule on or off
func (s *RuleService) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*RuleDTO, error) {
	rule, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if enabled {
		rule.Enable()
	} else {
		rule.Disable()
	}
	if err := s.repo.Save(ctx, rule); err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update rule")
	}
	return toRuleDTO(rule)
}

// Delete removes a rule
func (s *RuleService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete rule", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete rule")
	}
	s.recorder.Record(ctx, "automation_rule", id, domainsync.OpDelete, appctx.Actor(ctx))
	return nil
}

func (s *RuleService) find(ctx context.Context, id uuid.UUID) (*automation.AutomationRule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("RULE_NOT_FOUND", "Automation rule not found")
		}
		s.logger.Error("Failed to find rule", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find rule")
	}
	return rule, nil
}

func toRuleDTO(r *automation.AutomationRule) (*RuleDTO, error) {
	conditions, err := r.Conditions()
	if err != nil {
		return nil, err
	}
	actions, err := r.Actions()
	if err != nil {
		return nil, err
	}
	return &RuleDTO{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		TargetEntity:    r.TargetEntity,
		Trigger:         string(r.Trigger),
		TriggerEvent:    r.TriggerEvent,
		IntervalSeconds: r.IntervalSeconds,
		Conditions:      conditions,
		Actions:         actions,
		Enabled:         r.Enabled,
		LastRunAt:       r.LastRunAt,
		RunCount:        r.RunCount,
		MatchCount:      r.MatchCount,
		LastError:       r.LastError,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}
