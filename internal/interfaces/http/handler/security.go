package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	securityapp "github.com/markethub/backend/internal/application/security"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/interfaces/http/middleware"
)

// SecurityHandler handles security audit and alert endpoints
type SecurityHandler struct {
	BaseHandler
	eventService *securityapp.EventService
	alertService *securityapp.AlertService
}

// NewSecurityHandler creates a new security handler
func NewSecurityHandler(
	eventService *securityapp.EventService,
	alertService *securityapp.AlertService,
) *SecurityHandler {
	return &SecurityHandler{
		eventService: eventService,
		alertService: alertService,
	}
}

// ListEvents godoc
// @Summary      List security events
// @Description  Retrieve the paginated security audit trail, filterable by type and severity
// @Tags         security
// @Accept       json
// @Produce      json
// @Param        type query string false "Event type filter" Enums(login_failed, login_success, permission_denied, suspicious_request, account_locked, password_reset)
// @Param        severity query string false "Severity filter" Enums(info, warning, critical)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]securityapp.SecurityEventDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /security/events [get]
func (h *SecurityHandler) ListEvents(c *gin.Context) {
	filter := bindListFilter(c)
	if eventType := c.Query("type"); eventType != "" {
		filter.Filters["type"] = eventType
	}
	if severity := c.Query("severity"); severity != "" {
		filter.Filters["severity"] = severity
	}

	result, err := h.eventService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListAlerts godoc
// @Summary      List security alerts
// @Description  Retrieve a paginated list of security alerts, filterable by triage status
// @Tags         security
// @Accept       json
// @Produce      json
// @Param        status query string false "Status filter" Enums(open, acknowledged, resolved)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]securityapp.AlertDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /security/alerts [get]
func (h *SecurityHandler) ListAlerts(c *gin.Context) {
	filter := bindListFilter(c)
	status := security.AlertStatus(c.Query("status"))

	result, err := h.alertService.List(c.Request.Context(), status, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// AcknowledgeAlert godoc
// @Summary      Acknowledge an alert
// @Description  Move an open alert to acknowledged, recording who triaged it
// @Tags         security
// @Accept       json
// @Produce      json
// @Param        id path string true "Alert ID" format(uuid)
// @Success      200 {object} dto.Response{data=securityapp.AlertDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /security/alerts/{id}/acknowledge [post]
func (h *SecurityHandler) AcknowledgeAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid alert ID format")
		return
	}

	alert, err := h.alertService.Acknowledge(c.Request.Context(), alertID, middleware.GetJWTUsername(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, alert)
}

// ResolveAlert godoc
// @Summary      Resolve an alert
// @Description  Mark an alert as resolved, recording who closed it
// @Tags         security
// @Accept       json
// @Produce      json
// @Param        id path string true "Alert ID" format(uuid)
// @Success      200 {object} dto.Response{data=securityapp.AlertDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /security/alerts/{id}/resolve [post]
func (h *SecurityHandler) ResolveAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid alert ID format")
		return
	}

	alert, err := h.alertService.Resolve(c.Request.Context(), alertID, middleware.GetJWTUsername(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, alert)
}
