package automation

import (
	"context"

	"github.com/markethub/backend/internal/domain/shared"
)

// RuleRepository defines persistence operations for automation rules
type RuleRepository interface {
	shared.Repository[AutomationRule]

	FindEnabled(ctx context.Context) ([]AutomationRule, error)
	FindByTrigger(ctx context.Context, trigger TriggerType) ([]AutomationRule, error)
	FindByEventType(ctx context.Context, eventType string) ([]AutomationRule, error)
}
