package security

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AlertService manages the alert triage lifecycle
type AlertService struct {
	alertRepo security.AlertRepository
	logger    *zap.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(alertRepo security.AlertRepository, logger *zap.Logger) *AlertService {
	return &AlertService{alertRepo: alertRepo, logger: logger}
}

// AlertDTO is the API representation of a security alert
type AlertDTO struct {
	ID             string     `json:"id"`
	Rule           string     `json:"rule"`
	Severity       string     `json:"severity"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	Occurrences    int        `json:"occurrences"`
	LastSeenAt     time.Time  `json:"last_seen_at"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toAlertDTO(a *security.Alert) *AlertDTO {
	return &AlertDTO{
		ID:             a.ID.String(),
		Rule:           a.Rule,
		Severity:       string(a.Severity),
		Message:        a.Message,
		Status:         string(a.Status),
		Occurrences:    a.Occurrences,
		LastSeenAt:     a.LastSeenAt,
		AcknowledgedBy: a.AcknowledgedBy,
		AcknowledgedAt: a.AcknowledgedAt,
		ResolvedBy:     a.ResolvedBy,
		ResolvedAt:     a.ResolvedAt,
		CreatedAt:      a.CreatedAt,
	}
}

// Raise creates an alert or touches an active one with the same dedup
// key. Returns the alert and whether it was newly created.
func (s *AlertService) Raise(ctx context.Context, rule string, severity security.Severity, message, dedupKey string) (*security.Alert, bool, error) {
	if dedupKey == "" {
		dedupKey = rule
	}

	existing, err := s.alertRepo.FindActiveByDedupKey(ctx, dedupKey)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		s.logger.Error("Failed to check for active alert", zap.Error(err))
		return nil, false, shared.NewDomainError("INTERNAL_ERROR", "Failed to check for active alert")
	}
	if existing != nil {
		existing.Touch()
		if err := s.alertRepo.Save(ctx, existing); err != nil {
			s.logger.Error("Failed to touch alert", zap.Error(err))
			return nil, false, shared.NewDomainError("INTERNAL_ERROR", "Failed to update alert")
		}
		return existing, false, nil
	}

	alert, err := security.NewAlert(rule, severity, message, dedupKey)
	if err != nil {
		return nil, false, err
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		s.logger.Error("Failed to save alert", zap.Error(err))
		return nil, false, shared.NewDomainError("INTERNAL_ERROR", "Failed to save alert")
	}

	s.logger.Warn("Security alert raised",
		zap.String("rule", rule),
		zap.String("severity", string(severity)),
		zap.String("message", message))
	return alert, true, nil
}

// List returns alerts, optionally filtered by status
func (s *AlertService) List(ctx context.Context, status security.AlertStatus, filter shared.Filter) (*shared.Paginated[AlertDTO], error) {
	filter.Normalize()

	var page shared.Paginated[security.Alert]
	var err error
	if status != "" {
		page, err = s.alertRepo.FindByStatus(ctx, status, filter)
	} else {
		var alerts []security.Alert
		alerts, err = s.alertRepo.FindAll(ctx, filter)
		if err == nil {
			var total int64
			total, err = s.alertRepo.Count(ctx, filter)
			page = shared.NewPaginated(alerts, total, filter.Page, filter.PageSize)
		}
	}
	if err != nil {
		s.logger.Error("Failed to list alerts", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list alerts")
	}

	dtos := make([]AlertDTO, len(page.Items))
	for i := range page.Items {
		dtos[i] = *toAlertDTO(&page.Items[i])
	}
	result := shared.NewPaginated(dtos, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Acknowledge marks an open alert as seen
func (s *AlertService) Acknowledge(ctx context.Context, id uuid.UUID, by string) (*AlertDTO, error) {
	alert, err := s.findAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := alert.Acknowledge(by); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		s.logger.Error("Failed to save alert", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update alert")
	}
	return toAlertDTO(alert), nil
}

// Resolve closes an alert
func (s *AlertService) Resolve(ctx context.Context, id uuid.UUID, by string) (*AlertDTO, error) {
	alert, err := s.findAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := alert.Resolve(by); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		s.logger.Error("Failed to save alert", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update alert")
	}
	s.logger.Info("Alert resolved",
		zap.String("alert_id", id.String()),
		zap.String("by", by))
	return toAlertDTO(alert), nil
}

func (s *AlertService) findAlert(ctx context.Context, id uuid.UUID) (*security.Alert, error) {
	alert, err := s.alertRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ALERT_NOT_FOUND", "Alert not found")
		}
		s.logger.Error("Failed to find alert", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find alert")
	}
	return alert, nil
}
