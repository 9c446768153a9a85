package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	automationapp "github.com/markethub/backend/internal/application/automation"
)

// AutomationHandler handles automation rule endpoints
type AutomationHandler struct {
	BaseHandler
	ruleService *automationapp.RuleService
	engine      *automationapp.Engine
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(ruleService *automationapp.RuleService, engine *automationapp.Engine) *AutomationHandler {
	return &AutomationHandler{
		ruleService: ruleService,
		engine:      engine,
	}
}

// RunRuleResponse reports an on-demand rule run
// @Description Result of running an automation rule on demand
type RunRuleResponse struct {
	Matches int64 `json:"matches" example:"12"`
}

// Create godoc
// @Summary      Create an automation rule
// @Description  Create a rule with conditions and actions over products or orders
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        request body automationapp.CreateRuleInput true "Rule creation request"
// @Success      201 {object} dto.Response{data=automationapp.RuleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /automation/rules [post]
func (h *AutomationHandler) Create(c *gin.Context) {
	var input automationapp.CreateRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.ruleService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, rule)
}

// GetByID godoc
// @Summary      Get automation rule by ID
// @Description  Retrieve a rule with its conditions, actions and run statistics
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Success      200 {object} dto.Response{data=automationapp.RuleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /automation/rules/{id} [get]
func (h *AutomationHandler) GetByID(c *gin.Context) {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	rule, err := h.ruleService.GetByID(c.Request.Context(), ruleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rule)
}

// List godoc
// @Summary      List automation rules
// @Description  Retrieve a paginated list of automation rules
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        search query string false "Search keyword"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]automationapp.RuleDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /automation/rules [get]
func (h *AutomationHandler) List(c *gin.Context) {
	filter := bindListFilter(c)

	result, err := h.ruleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @Summary      Update an automation rule
// @Description  Update a rule's conditions, actions or trigger; omitted fields are left unchanged
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Param        request body automationapp.UpdateRuleInput true "Rule update request"
// @Success      200 {object} dto.Response{data=automationapp.RuleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /automation/rules/{id} [put]
func (h *AutomationHandler) Update(c *gin.Context) {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	var input automationapp.UpdateRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.ruleService.Update(c.Request.Context(), ruleID, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rule)
}

// SetEnabled godoc
// @Summary      Enable or disable a rule
// @Description  Toggle whether a rule runs on its trigger
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Param        request body SetEnabledRequest true "Enabled flag"
// @Success      200 {object} dto.Response{data=automationapp.RuleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /automation/rules/{id}/enabled [put]
func (h *AutomationHandler) SetEnabled(c *gin.Context) {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.ruleService.SetEnabled(c.Request.Context(), ruleID, *req.Enabled)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, rule)
}

// Run godoc
// @Summary      Run a rule now
// @Description  Execute a rule immediately regardless of its trigger and return the match count
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Success      200 {object} dto.Response{data=RunRuleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /automation/rules/{id}/run [post]
func (h *AutomationHandler) Run(c *gin.Context) {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	matches, err := h.engine.RunRule(c.Request.Context(), ruleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, RunRuleResponse{Matches: matches})
}

// Delete godoc
// @Summary      Delete an automation rule
// @Description  Permanently delete an automation rule
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /automation/rules/{id} [delete]
func (h *AutomationHandler) Delete(c *gin.Context) {
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	if err := h.ruleService.Delete(c.Request.Context(), ruleID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
