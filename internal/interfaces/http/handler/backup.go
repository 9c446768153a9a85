package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	backupapp "github.com/markethub/backend/internal/application/backup"
)

// BackupHandler handles database backup endpoints
type BackupHandler struct {
	BaseHandler
	backupService *backupapp.BackupService
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(backupService *backupapp.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// Run godoc
// @Summary      Run a backup now
// @Description  Execute a database backup immediately. Failed runs stay visible in history.
// @Tags         backups
// @Accept       json
// @Produce      json
// @Success      201 {object} dto.Response{data=backupapp.BackupDTO}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups [post]
func (h *BackupHandler) Run(c *gin.Context) {
	record, err := h.backupService.Run(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, record)
}

// List godoc
// @Summary      List backups
// @Description  Retrieve backup history, newest first
// @Tags         backups
// @Accept       json
// @Produce      json
// @Param        limit query int false "Maximum records to return" default(50)
// @Success      200 {object} dto.Response{data=[]backupapp.BackupDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		h.BadRequest(c, "Invalid limit")
		return
	}

	records, err := h.backupService.List(c.Request.Context(), limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, records)
}

// GetByID godoc
// @Summary      Get backup by ID
// @Description  Retrieve a single backup record
// @Tags         backups
// @Accept       json
// @Produce      json
// @Param        id path string true "Backup ID" format(uuid)
// @Success      200 {object} dto.Response{data=backupapp.BackupDTO}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups/{id} [get]
func (h *BackupHandler) GetByID(c *gin.Context) {
	backupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backup ID format")
		return
	}

	record, err := h.backupService.GetByID(c.Request.Context(), backupID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, record)
}

// Restore godoc
// @Summary      Restore a backup
// @Description  Restore the database from a completed backup artifact
// @Tags         backups
// @Accept       json
// @Produce      json
// @Param        id path string true "Backup ID" format(uuid)
// @Success      200 {object} dto.Response{data=MessageData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups/{id}/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	backupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backup ID format")
		return
	}

	if err := h.backupService.Restore(c.Request.Context(), backupID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, MessageData{Message: "Restore completed"})
}

// Delete godoc
// @Summary      Delete a backup
// @Description  Delete a backup record and its local artifact
// @Tags         backups
// @Accept       json
// @Produce      json
// @Param        id path string true "Backup ID" format(uuid)
// @Success      204 "No Content"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups/{id} [delete]
func (h *BackupHandler) Delete(c *gin.Context) {
	backupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backup ID format")
		return
	}

	if err := h.backupService.Delete(c.Request.Context(), backupID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
