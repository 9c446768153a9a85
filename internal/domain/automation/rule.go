package automation

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
)

// TriggerType determines when a rule is evaluated
type TriggerType string

const (
	// TriggerEvent fires when a matching change event is observed
	TriggerEvent TriggerType = "event"
	// TriggerInterval fires on the scheduler's tick
	TriggerInterval TriggerType = "interval"
)

// ConditionOperator compares a document field against a rule value
type ConditionOperator string

const (
	OpEquals      ConditionOperator = "eq"
	OpNotEquals   ConditionOperator = "neq"
	OpGreaterThan ConditionOperator = "gt"
	OpGreaterOrEq ConditionOperator = "gte"
	OpLessThan    ConditionOperator = "lt"
	OpLessOrEq    ConditionOperator = "lte"
	OpContains    ConditionOperator = "contains"
	OpIn          ConditionOperator = "in"
)

// ActionType is what a matched rule does to the target document
type ActionType string

const (
	ActionSetStatus          ActionType = "set_status"
	ActionAdjustPricePercent ActionType = "adjust_price_percent"
	ActionSetField           ActionType = "set_field"
	ActionRaiseAlert         ActionType = "raise_alert"
)

// Condition is one field comparison; a rule's conditions are ANDed
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
	Values   []string          `json:"values,omitempty"`
}

// Action is one effect applied when all conditions match
type Action struct {
	Type   ActionType        `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

var validOperators = map[ConditionOperator]bool{
	OpEquals: true, OpNotEquals: true,
	OpGreaterThan: true, OpGreaterOrEq: true,
	OpLessThan: true, OpLessOrEq: true,
	OpContains: true, OpIn: true,
}

var validActions = map[ActionType]bool{
	ActionSetStatus: true, ActionAdjustPricePercent: true,
	ActionSetField: true, ActionRaiseAlert: true,
}

var validTargets = map[string]bool{
	"product": true, "order": true,
}

// AutomationRule evaluates conditions against target documents and
// applies actions when they all match. Conditions and actions are
// stored as JSON columns.
type AutomationRule struct {
	shared.BaseAggregateRoot
	Name            string      `gorm:"type:varchar(100);not null"`
	Description     string      `gorm:"type:text"`
	TargetEntity    string      `gorm:"type:varchar(30);not null;index"`
	Trigger         TriggerType `gorm:"type:varchar(20);not null;default:'interval'"`
	TriggerEvent    string      `gorm:"type:varchar(50)"`
	IntervalSeconds int         `gorm:"not null;default:300"`
	ConditionsJSON  string      `gorm:"type:jsonb;column:conditions;default:'[]'"`
	ActionsJSON     string      `gorm:"type:jsonb;column:actions;default:'[]'"`
	Enabled         bool        `gorm:"not null;default:true;index"`
	LastRunAt       *time.Time
	RunCount        int64  `gorm:"not null;default:0"`
	MatchCount      int64  `gorm:"not null;default:0"`
	LastError       string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AutomationRule) TableName() string {
	return "automation_rules"
}

// NewAutomationRule creates an enabled interval rule with no conditions
func NewAutomationRule(name, targetEntity string) (*AutomationRule, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Rule name cannot be empty")
	}
	if !validTargets[targetEntity] {
		return nil, shared.NewDomainError("INVALID_TARGET", "Unsupported rule target: "+targetEntity)
	}

	return &AutomationRule{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		TargetEntity:      targetEntity,
		Trigger:           TriggerInterval,
		IntervalSeconds:   300,
		ConditionsJSON:    "[]",
		ActionsJSON:       "[]",
		Enabled:           true,
	}, nil
}

// SetConditions validates and stores the condition list
func (r *AutomationRule) SetConditions(conditions []Condition) error {
	for _, c := range conditions {
		if c.Field == "" {
			return shared.NewDomainError("INVALID_CONDITION", "Condition field cannot be empty")
		}
		if !validOperators[c.Operator] {
			return shared.NewDomainError("INVALID_CONDITION", "Unknown operator: "+string(c.Operator))
		}
		if c.Operator == OpIn && len(c.Values) == 0 {
			return shared.NewDomainError("INVALID_CONDITION", "Operator 'in' requires a values list")
		}
	}
	raw, err := json.Marshal(conditions)
	if err != nil {
		return shared.NewDomainError("INVALID_FORMAT", "Conditions cannot be serialized")
	}
	r.ConditionsJSON = string(raw)
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Conditions decodes the stored condition list
func (r *AutomationRule) Conditions() ([]Condition, error) {
	var conditions []Condition
	if err := json.Unmarshal([]byte(r.ConditionsJSON), &conditions); err != nil {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Stored conditions are corrupted")
	}
	return conditions, nil
}

// SetActions validates and stores the action list
func (r *AutomationRule) SetActions(actions []Action) error {
	if len(actions) == 0 {
		return shared.NewDomainError("INVALID_ACTION", "Rule must have at least one action")
	}
	for _, a := range actions {
		if !validActions[a.Type] {
			return shared.NewDomainError("INVALID_ACTION", "Unknown action type: "+string(a.Type))
		}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return shared.NewDomainError("INVALID_FORMAT", "Actions cannot be serialized")
	}
	r.ActionsJSON = string(raw)
	r.Touch()
	r.IncrementVersion()
	return nil
}

// Actions decodes the stored action list
func (r *AutomationRule) Actions() ([]Action, error) {
	var actions []Action
	if err := json.Unmarshal([]byte(r.ActionsJSON), &actions); err != nil {
		return nil, shared.NewDomainError("INVALID_FORMAT", "Stored actions are corrupted")
	}
	return actions, nil
}

// SetInterval configures an interval trigger
func (r *AutomationRule) SetInterval(seconds int) error {
	if seconds < 10 {
		return shared.NewDomainError("INVALID_INTERVAL", "Interval must be at least 10 seconds")
	}
	r.Trigger = TriggerInterval
	r.IntervalSeconds = seconds
	r.TriggerEvent = ""
	r.Touch()
	r.IncrementVersion()
	return nil
}

// SetEventTrigger configures an event trigger
func (r *AutomationRule) SetEventTrigger(eventType string) error {
	if eventType == "" {
		return shared.NewDomainError("INVALID_TRIGGER", "Event trigger requires an event type")
	}
	r.Trigger = TriggerEvent
	r.TriggerEvent = eventType
	r.Touch()
	r.IncrementVersion()
	return nil
}

// RecordRun stores the outcome of one engine pass over this rule
func (r *AutomationRule) RecordRun(matches int64, runErr error) {
	now := time.Now()
	r.LastRunAt = &now
	r.RunCount++
	r.MatchCount += matches
	if runErr != nil {
		r.LastError = runErr.Error()
	} else {
		r.LastError = ""
	}
	r.UpdatedAt = now
	r.IncrementVersion()
}

// Enable turns the rule on
func (r *AutomationRule) Enable() {
	r.Enabled = true
	r.Touch()
	r.IncrementVersion()
}

// Disable turns the rule off
func (r *AutomationRule) Disable() {
	r.Enabled = false
	r.Touch()
	r.IncrementVersion()
}

// Due reports whether an interval rule should run now
func (r *AutomationRule) Due(now time.Time) bool {
	if !r.Enabled || r.Trigger != TriggerInterval {
		return false
	}
	if r.LastRunAt == nil {
		return true
	}
	return now.Sub(*r.LastRunAt) >= time.Duration(r.IntervalSeconds)*time.Second
}
