package security

import (
	"context"
	"encoding/json"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
)

// EventType classifies a security-relevant occurrence
type EventType string

const (
	EventLoginFailed       EventType = "login_failed"
	EventLoginSuccess      EventType = "login_success"
	EventPermissionDenied  EventType = "permission_denied"
	EventSuspiciousRequest EventType = "suspicious_request"
	EventAccountLocked     EventType = "account_locked"
	EventPasswordReset     EventType = "password_reset"
)

// Severity grades events and alerts
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is an append-only audit record. Events are never
// updated after creation.
type SecurityEvent struct {
	shared.BaseEntity
	Type     EventType `gorm:"type:varchar(30);not null;index"`
	Severity Severity  `gorm:"type:varchar(10);not null;index"`
	Actor    string    `gorm:"type:varchar(254);index"`
	IP       string    `gorm:"type:varchar(45);index"`
	Path     string    `gorm:"type:varchar(255)"`
	Metadata string    `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (SecurityEvent) TableName() string {
	return "security_events"
}

// NewSecurityEvent creates an audit event. Metadata keys beyond the
// structured fields go into the metadata object.
func NewSecurityEvent(eventType EventType, severity Severity, actor, ip string, metadata map[string]any) (*SecurityEvent, error) {
	if eventType == "" {
		return nil, shared.NewDomainError("INVALID_EVENT", "Event type cannot be empty")
	}
	if severity == "" {
		severity = SeverityInfo
	}

	meta := "{}"
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_FORMAT", "Event metadata cannot be serialized")
		}
		meta = string(raw)
	}

	return &SecurityEvent{
		BaseEntity: shared.NewBaseEntity(),
		Type:       eventType,
		Severity:   severity,
		Actor:      actor,
		IP:         ip,
		Metadata:   meta,
	}, nil
}

// ActorCount is an aggregated event count keyed by actor or IP
type ActorCount struct {
	Key   string
	Count int64
}

// SecurityEventRepository defines persistence for the audit trail.
// Events are insert-only; Save on an existing row is a programming error.
type SecurityEventRepository interface {
	Save(ctx context.Context, event *SecurityEvent) error
	FindByID(ctx context.Context, id string) (*SecurityEvent, error)
	FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[SecurityEvent], error)
	CountByTypeSince(ctx context.Context, eventType EventType, since time.Time) (int64, error)
	CountByActorSince(ctx context.Context, eventType EventType, since time.Time) ([]ActorCount, error)
	CountByIPSince(ctx context.Context, eventType EventType, since time.Time) ([]ActorCount, error)
	HourlyCounts(ctx context.Context, since time.Time) ([]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
