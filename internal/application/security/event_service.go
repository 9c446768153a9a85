package security

import (
	"context"
	"time"

	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventService records and queries the security audit trail.
// Recording is best effort: callers never fail because the audit
// write failed.
type EventService struct {
	eventRepo security.SecurityEventRepository
	logger    *zap.Logger
}

// NewEventService creates a new security event service
func NewEventService(eventRepo security.SecurityEventRepository, logger *zap.Logger) *EventService {
	return &EventService{eventRepo: eventRepo, logger: logger}
}

// Record appends a security event
func (s *EventService) Record(ctx context.Context, eventType security.EventType, severity security.Severity, actor, ip string, metadata map[string]any) {
	event, err := security.NewSecurityEvent(eventType, severity, actor, ip, metadata)
	if err != nil {
		s.logger.Warn("Invalid security event", zap.Error(err))
		return
	}
	if err := s.eventRepo.Save(ctx, event); err != nil {
		s.logger.Warn("Failed to record security event",
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}

// SecurityEventDTO represents an audit event returned to the HTTP layer
type SecurityEventDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Actor     string    `json:"actor,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns a paginated slice of the audit trail
func (s *EventService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[SecurityEventDTO], error) {
	filter.Normalize()

	page, err := s.eventRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list security events", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list security events")
	}

	dtos := make([]SecurityEventDTO, len(page.Items))
	for i := range page.Items {
		e := &page.Items[i]
		dtos[i] = SecurityEventDTO{
			ID:        e.ID.String(),
			Type:      string(e.Type),
			Severity:  string(e.Severity),
			Actor:     e.Actor,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		}
	}
	result := shared.NewPaginated(dtos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Purge deletes audit events older than the retention cutoff
func (s *EventService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := s.eventRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to purge security events", zap.Error(err))
		return 0, shared.NewDomainError("INTERNAL_ERROR", "Failed to purge security events")
	}
	if deleted > 0 {
		s.logger.Info("Purged security events",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}
