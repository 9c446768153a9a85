package security

import (
	"context"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
)

// AlertStatus is the triage state of an alert
type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "open"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Alert is raised by the security monitor or an automation rule.
// DedupKey suppresses duplicates: while an alert with the same key is
// open or acknowledged, re-raising it is a no-op.
type Alert struct {
	shared.BaseAggregateRoot
	Rule           string      `gorm:"type:varchar(100);not null;index"`
	Severity       Severity    `gorm:"type:varchar(10);not null;index"`
	Message        string      `gorm:"type:text;not null"`
	DedupKey       string      `gorm:"type:varchar(200);not null;index"`
	Status         AlertStatus `gorm:"type:varchar(20);not null;default:'open';index"`
	Occurrences    int         `gorm:"not null;default:1"`
	LastSeenAt     time.Time   `gorm:"not null"`
	AcknowledgedBy string      `gorm:"type:varchar(100)"`
	AcknowledgedAt *time.Time
	ResolvedBy     string `gorm:"type:varchar(100)"`
	ResolvedAt     *time.Time
}

// TableName returns the table name for GORM
func (Alert) TableName() string {
	return "security_alerts"
}

// NewAlert creates an open alert
func NewAlert(rule string, severity Severity, message, dedupKey string) (*Alert, error) {
	if rule == "" {
		return nil, shared.NewDomainError("INVALID_ALERT", "Alert rule cannot be empty")
	}
	if message == "" {
		return nil, shared.NewDomainError("INVALID_ALERT", "Alert message cannot be empty")
	}
	if dedupKey == "" {
		dedupKey = rule
	}

	return &Alert{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Rule:              rule,
		Severity:          severity,
		Message:           message,
		DedupKey:          dedupKey,
		Status:            AlertStatusOpen,
		Occurrences:       1,
		LastSeenAt:        time.Now(),
	}, nil
}

// Touch records another occurrence of an already-active alert
func (a *Alert) Touch() {
	a.Occurrences++
	a.LastSeenAt = time.Now()
	a.UpdatedAt = a.LastSeenAt
	a.IncrementVersion()
}

// Acknowledge marks the alert as seen by an operator
func (a *Alert) Acknowledge(by string) error {
	if a.Status != AlertStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Only open alerts can be acknowledged")
	}
	now := time.Now()
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedBy = by
	a.AcknowledgedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()
	return nil
}

// Resolve closes the alert. Open alerts may be resolved directly.
func (a *Alert) Resolve(by string) error {
	if a.Status == AlertStatusResolved {
		return shared.NewDomainError("INVALID_STATE", "Alert is already resolved")
	}
	now := time.Now()
	a.Status = AlertStatusResolved
	a.ResolvedBy = by
	a.ResolvedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()
	return nil
}

// IsActive reports whether the alert still suppresses duplicates
func (a *Alert) IsActive() bool {
	return a.Status != AlertStatusResolved
}

// AlertRepository defines persistence operations for alerts
type AlertRepository interface {
	shared.Repository[Alert]

	FindByStatus(ctx context.Context, status AlertStatus, filter shared.Filter) (shared.Paginated[Alert], error)
	FindActiveByDedupKey(ctx context.Context, dedupKey string) (*Alert, error)
	CountByStatus(ctx context.Context) (map[AlertStatus]int64, error)
}
