package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markethub/backend/internal/application/appctx"
	bulkapp "github.com/markethub/backend/internal/application/bulk"
	"github.com/markethub/backend/internal/interfaces/http/middleware"
)

// BulkHandler handles bulk operation endpoints
type BulkHandler struct {
	BaseHandler
	bulkHandler *bulkapp.Handler
}

// NewBulkHandler creates a new bulk operation handler
func NewBulkHandler(bulkHandler *bulkapp.Handler) *BulkHandler {
	return &BulkHandler{bulkHandler: bulkHandler}
}

// Submit godoc
// @Summary      Submit a bulk operation
// @Description  Apply one action to a batch of items. The operation record and per-item results are persisted.
// @Tags         bulk
// @Accept       json
// @Produce      json
// @Param        request body bulkapp.SubmitInput true "Bulk operation request"
// @Success      201 {object} dto.Response{data=bulkapp.OperationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bulk/operations [post]
func (h *BulkHandler) Submit(c *gin.Context) {
	var input bulkapp.SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ctx := appctx.WithActor(c.Request.Context(), middleware.GetJWTUsername(c))
	op, err := h.bulkHandler.Submit(ctx, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, op)
}

// GetByID godoc
// @Summary      Get bulk operation by ID
// @Description  Retrieve a bulk operation with its per-item results
// @Tags         bulk
// @Accept       json
// @Produce      json
// @Param        id path string true "Operation ID" format(uuid)
// @Success      200 {object} dto.Response{data=bulkapp.OperationDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bulk/operations/{id} [get]
func (h *BulkHandler) GetByID(c *gin.Context) {
	opID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid operation ID format")
		return
	}

	op, err := h.bulkHandler.GetByID(c.Request.Context(), opID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, op)
}

// List godoc
// @Summary      List bulk operations
// @Description  Retrieve a paginated history of bulk operations, newest first
// @Tags         bulk
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} dto.Response{data=[]bulkapp.OperationDTO,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /bulk/operations [get]
func (h *BulkHandler) List(c *gin.Context) {
	filter := bindListFilter(c)

	result, err := h.bulkHandler.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
