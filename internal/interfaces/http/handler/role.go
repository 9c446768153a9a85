package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/identity"
)

// RoleHandler handles role management endpoints
type RoleHandler struct {
	BaseHandler
	roleService *identity.RoleService
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(roleService *identity.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// CreateRoleRequest represents a request to create a role
// @Description Request body for creating a new role
type CreateRoleRequest struct {
	Code        string   `json:"code" binding:"required,min=2,max=50" example:"catalog_manager"`
	Name        string   `json:"name" binding:"required,min=1,max=100" example:"Catalog Manager"`
	Description string   `json:"description" binding:"max=500" example:"Manages products and categories"`
	Permissions []string `json:"permissions" example:"product:read,product:create"`
}

// UpdateRoleRequest represents a request to update a role
// @Description Request body for updating a role
type UpdateRoleRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=100" example:"Catalog Manager"`
	Description *string  `json:"description" binding:"omitempty,max=500" example:"Updated description"`
	Permissions []string `json:"permissions"`
}

// Create godoc
// @Summary      Create a role
// @Description  Create a new role with a set of permission strings
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        request body CreateRoleRequest true "Role creation request"
// @Success      201 {object} dto.Response{data=identity.RoleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	role, err := h.roleService.Create(c.Request.Context(), identity.CreateRoleInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, role)
}

// GetByID godoc
// @Summary      Get role by ID
// @Description  Retrieve a role with its permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.RoleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /roles/{id} [get]
func (h *RoleHandler) GetByID(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid role ID format")
		return
	}

	role, err := h.roleService.GetByID(c.Request.Context(), roleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, role)
}

// List godoc
// @Summary      List roles
// @Description  Retrieve a paginated list of roles
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        search query string false "Search keyword"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]identity.RoleDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	filter := bindListFilter(c)

	result, err := h.roleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @Summary      Update a role
// @Description  Update a role's name, description or permissions. System roles cannot be modified.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID" format(uuid)
// @Param        request body UpdateRoleRequest true "Role update request"
// @Success      200 {object} dto.Response{data=identity.RoleDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /roles/{id} [put]
func (h *RoleHandler) Update(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid role ID format")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	role, err := h.roleService.Update(c.Request.Context(), identity.UpdateRoleInput{
		ID:          roleID,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, role)
}

// Delete godoc
// @Summary      Delete a role
// @Description  Delete a role. System roles and roles still assigned to users cannot be deleted.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id path string true "Role ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	roleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid role ID format")
		return
	}

	if err := h.roleService.Delete(c.Request.Context(), roleID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
