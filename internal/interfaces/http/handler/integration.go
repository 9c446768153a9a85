package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	integrationapp "github.com/markethub/backend/internal/application/integration"
	"github.com/markethub/backend/internal/domain/integration"
)

// IntegrationHandler handles third-party integration endpoints
type IntegrationHandler struct {
	BaseHandler
	integrationService *integrationapp.IntegrationService
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(integrationService *integrationapp.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{integrationService: integrationService}
}

// CreateIntegrationRequest represents a request to register an integration
// @Description Request body for registering a new integration
type CreateIntegrationRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100" example:"Main Shopify store"`
	Provider string `json:"provider" binding:"required,oneof=shopify stripe mailchimp google_ads facebook_ads webhook" example:"shopify"`
}

// SetCredentialsRequest represents a write-only credentials update
// @Description Request body for storing integration credentials. Credentials are never returned.
type SetCredentialsRequest struct {
	Credentials map[string]string `json:"credentials" binding:"required"`
}

// SetSettingsRequest represents an integration settings update
// @Description Request body for updating integration settings (raw JSON object)
type SetSettingsRequest struct {
	Settings string `json:"settings" binding:"required" example:"{\"sync_products\":true}"`
}

// RecordSyncRequest represents a sync outcome report
// @Description Request body for recording the outcome of a sync run
type RecordSyncRequest struct {
	Result       string `json:"result" binding:"required,oneof=success partial failed" example:"success"`
	ErrorMessage string `json:"error_message" binding:"max=1000"`
}

// Create godoc
// @Summary      Register an integration
// @Description  Register a new integration with an external provider. It starts disconnected.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        request body CreateIntegrationRequest true "Integration creation request"
// @Success      201 {object} dto.Response{data=integrationapp.IntegrationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations [post]
func (h *IntegrationHandler) Create(c *gin.Context) {
	var req CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.integrationService.Create(c.Request.Context(), req.Name, integration.Provider(req.Provider))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID godoc
// @Summary      Get integration by ID
// @Description  Retrieve an integration. Credentials are never included.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} dto.Response{data=integrationapp.IntegrationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/{id} [get]
func (h *IntegrationHandler) GetByID(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	result, err := h.integrationService.GetByID(c.Request.Context(), integrationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// List godoc
// @Summary      List integrations
// @Description  Retrieve a paginated integration list, filterable by provider
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        provider query string false "Provider filter" Enums(shopify, stripe, mailchimp, google_ads, facebook_ads, webhook)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]integrationapp.IntegrationDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations [get]
func (h *IntegrationHandler) List(c *gin.Context) {
	filter := bindListFilter(c)
	provider := integration.Provider(c.Query("provider"))

	result, err := h.integrationService.List(c.Request.Context(), provider, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// SetCredentials godoc
// @Summary      Store integration credentials
// @Description  Store credentials for an integration. Credentials are write-only and connecting requires a connection test.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body SetCredentialsRequest true "Credentials"
// @Success      200 {object} dto.Response{data=integrationapp.IntegrationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/{id}/credentials [put]
func (h *IntegrationHandler) SetCredentials(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	var req SetCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.integrationService.SetCredentials(c.Request.Context(), integrationID, req.Credentials)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SetSettings godoc
// @Summary      Update integration settings
// @Description  Replace an integration's settings JSON
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body SetSettingsRequest true "Settings JSON"
// @Success      200 {object} dto.Response{data=integrationapp.IntegrationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/{id}/settings [put]
func (h *IntegrationHandler) SetSettings(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	var req SetSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.integrationService.SetSettings(c.Request.Context(), integrationID, req.Settings)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// TestConnection godoc
// @Summary      Test an integration connection
// @Description  Verify stored credentials against the provider. Success moves the integration to connected.
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} dto.Response{data=integrationapp.IntegrationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/{id}/test [post]
func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	result, err := h.integrationService.TestConnection(c.Request.Context(), integrationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// RecordSync godoc
// @Summary      Record a sync outcome
// @Description  Record the outcome of a synchronization run for an integration
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body RecordSyncRequest true "Sync outcome"
// @Success      200 {object} dto.Response{data=integrationapp.IntegrationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/{id}/syncs [post]
func (h *IntegrationHandler) RecordSync(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	var req RecordSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.integrationService.RecordSync(c.Request.Context(), integrationID, integration.SyncResult(req.Result), req.ErrorMessage)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SetEnabled godoc
// @Summary      Enable or disable an integration
// @Description  Toggle whether an integration participates in syncs
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Param        request body SetEnabledRequest true "Enabled flag"
// @Success      200 {object} dto.Response{data=integrationapp.IntegrationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/{id}/enabled [put]
func (h *IntegrationHandler) SetEnabled(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.integrationService.SetEnabled(c.Request.Context(), integrationID, *req.Enabled)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Disconnect godoc
// @Summary      Disconnect an integration
// @Description  Clear stored credentials and move the integration back to disconnected
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      200 {object} dto.Response{data=integrationapp.IntegrationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/{id}/disconnect [post]
func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	result, err := h.integrationService.Disconnect(c.Request.Context(), integrationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete godoc
// @Summary      Delete an integration
// @Description  Permanently delete an integration and its stored credentials
// @Tags         integrations
// @Accept       json
// @Produce      json
// @Param        id path string true "Integration ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /integrations/{id} [delete]
func (h *IntegrationHandler) Delete(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID format")
		return
	}

	if err := h.integrationService.Delete(c.Request.Context(), integrationID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
