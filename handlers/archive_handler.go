package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"sparkai-backend/logging"
	"sparkai-backend/service"
	"sparkai-backend/storage"

	"github.com/gin-gonic/gin"
)

// ArchiveHandler serves and removes archived audit log snapshots
type ArchiveHandler struct {
	answerService *service.AnswerService
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(answerService *service.AnswerService) *ArchiveHandler {
	return &ArchiveHandler{answerService: answerService}
}

// GetArchive handles GET /admin/archive/*path
func (h *ArchiveHandler) GetArchive(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")
	if storagePath == "" {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "archive path is required")
		return
	}

	ctx := c.Request.Context()
	reader, err := h.answerService.OpenArchive(ctx, storagePath)
	switch {
	case errors.Is(err, service.ErrArchiveNotConfigured):
		respondError(c, http.StatusServiceUnavailable, CodeArchiveDisabled, err.Error())
		return
	case errors.Is(err, storage.ErrObjectNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, "Archive not found")
		return
	case errors.Is(err, storage.ErrInvalidPath):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid archive path")
		return
	case err != nil:
		slog.ErrorContext(ctx, "archive download failed", "request_id", logging.RequestID(ctx), "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to download archive")
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", path.Base(storagePath)))
	c.DataFromReader(http.StatusOK, -1, "application/json", reader, nil)
}

// DeleteArchive handles DELETE /admin/archive/*path
func (h *ArchiveHandler) DeleteArchive(c *gin.Context) {
	storagePath := strings.TrimPrefix(c.Param("path"), "/")
	if storagePath == "" {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "archive path is required")
		return
	}

	ctx := c.Request.Context()
	err := h.answerService.DeleteArchive(ctx, storagePath)
	switch {
	case errors.Is(err, service.ErrArchiveNotConfigured):
		respondError(c, http.StatusServiceUnavailable, CodeArchiveDisabled, err.Error())
		return
	case errors.Is(err, storage.ErrInvalidPath):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid archive path")
		return
	case err != nil:
		slog.ErrorContext(ctx, "archive delete failed", "request_id", logging.RequestID(ctx), "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to delete archive")
		return
	}

	c.Status(http.StatusNoContent)
}
