package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/mobile"
)

// MobileScreenHandler handles mobile screen configuration endpoints
type MobileScreenHandler struct {
	BaseHandler
	screenService *mobile.ScreenService
}

// NewMobileScreenHandler creates a new mobile screen handler
func NewMobileScreenHandler(screenService *mobile.ScreenService) *MobileScreenHandler {
	return &MobileScreenHandler{screenService: screenService}
}

// Create godoc
// @Summary      Create a screen configuration
// @Description  Create a new mobile screen configuration in draft state
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        request body mobile.CreateScreenInput true "Screen creation request"
// @Success      201 {object} dto.Response{data=mobile.ScreenDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens [post]
func (h *MobileScreenHandler) Create(c *gin.Context) {
	var input mobile.CreateScreenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	screen, err := h.screenService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, screen)
}

// GetByID godoc
// @Summary      Get screen configuration by ID
// @Description  Retrieve a screen configuration including draft and published layouts
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        id path string true "Screen ID" format(uuid)
// @Success      200 {object} dto.Response{data=mobile.ScreenDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens/{id} [get]
func (h *MobileScreenHandler) GetByID(c *gin.Context) {
	screenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid screen ID format")
		return
	}

	screen, err := h.screenService.GetByID(c.Request.Context(), screenID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, screen)
}

// GetByScreenKey godoc
// @Summary      Get screen configuration by key
// @Description  Retrieve a screen configuration by its unique screen key
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        key path string true "Screen key" example(home)
// @Success      200 {object} dto.Response{data=mobile.ScreenDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens/key/{key} [get]
func (h *MobileScreenHandler) GetByScreenKey(c *gin.Context) {
	screen, err := h.screenService.GetByScreenKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, screen)
}

// List godoc
// @Summary      List screen configurations
// @Description  Retrieve a paginated list of screen configurations
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        search query string false "Search keyword"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]mobile.ScreenDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens [get]
func (h *MobileScreenHandler) List(c *gin.Context) {
	filter := bindListFilter(c)

	result, err := h.screenService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListLive godoc
// @Summary      List live screens
// @Description  Retrieve the published layouts served to mobile clients. Only published screens are included.
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=[]mobile.LiveScreenDTO}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /mobile/screens/live [get]
func (h *MobileScreenHandler) ListLive(c *gin.Context) {
	screens, err := h.screenService.ListLive(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, screens)
}

// Update godoc
// @Summary      Update a screen configuration
// @Description  Update a screen's draft layout, title, theme or minimum app version
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        id path string true "Screen ID" format(uuid)
// @Param        request body mobile.UpdateScreenInput true "Screen update request"
// @Success      200 {object} dto.Response{data=mobile.ScreenDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens/{id} [put]
func (h *MobileScreenHandler) Update(c *gin.Context) {
	screenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid screen ID format")
		return
	}

	var input mobile.UpdateScreenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	screen, err := h.screenService.Update(c.Request.Context(), screenID, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, screen)
}

// Publish godoc
// @Summary      Publish a screen
// @Description  Promote the draft layout to the published layout and bump the published version
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        id path string true "Screen ID" format(uuid)
// @Success      200 {object} dto.Response{data=mobile.ScreenDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens/{id}/publish [post]
func (h *MobileScreenHandler) Publish(c *gin.Context) {
	screenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid screen ID format")
		return
	}

	screen, err := h.screenService.Publish(c.Request.Context(), screenID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, screen)
}

// Unpublish godoc
// @Summary      Unpublish a screen
// @Description  Take a published screen offline without discarding its draft
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        id path string true "Screen ID" format(uuid)
// @Success      200 {object} dto.Response{data=mobile.ScreenDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens/{id}/unpublish [post]
func (h *MobileScreenHandler) Unpublish(c *gin.Context) {
	screenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid screen ID format")
		return
	}

	screen, err := h.screenService.Unpublish(c.Request.Context(), screenID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, screen)
}

// Archive godoc
// @Summary      Archive a screen
// @Description  Archive a screen configuration. Archived screens are never served to clients.
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        id path string true "Screen ID" format(uuid)
// @Success      200 {object} dto.Response{data=mobile.ScreenDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens/{id}/archive [post]
func (h *MobileScreenHandler) Archive(c *gin.Context) {
	screenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid screen ID format")
		return
	}

	screen, err := h.screenService.Archive(c.Request.Context(), screenID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, screen)
}

// Delete godoc
// @Summary      Delete a screen configuration
// @Description  Permanently delete a screen configuration
// @Tags         mobile
// @Accept       json
// @Produce      json
// @Param        id path string true "Screen ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /mobile/screens/{id} [delete]
func (h *MobileScreenHandler) Delete(c *gin.Context) {
	screenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid screen ID format")
		return
	}

	if err := h.screenService.Delete(c.Request.Context(), screenID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
