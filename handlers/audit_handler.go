package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"sparkai-backend/logging"
	"sparkai-backend/models"
	"sparkai-backend/repository"
	"sparkai-backend/service"

	"github.com/gin-gonic/gin"
)

// AuditHandler handles the administrative audit log endpoints
type AuditHandler struct {
	answerService *service.AnswerService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(answerService *service.AnswerService) *AuditHandler {
	return &AuditHandler{answerService: answerService}
}

// ListLogs handles GET /admin/logs?limit=50
func (h *AuditHandler) ListLogs(c *gin.Context) {
	var req service.ListAuditLogsRequest
	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(c, http.StatusBadRequest, CodeInvalidLimit, "limit must be a non-negative integer")
			return
		}
		req.Limit = &limit
	}

	ctx := c.Request.Context()
	result, err := h.answerService.ListAuditLogs(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "list audit logs failed", "request_id", logging.RequestID(ctx), "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to list audit logs")
		return
	}

	logs := result.Entries
	if logs == nil {
		logs = []*models.AuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// FlagLog handles POST /admin/logs/:id/flag?flagged=true
func (h *AuditHandler) FlagLog(c *gin.Context) {
	req := service.SetAuditFlagRequest{ID: c.Param("id")}
	if raw, ok := c.GetQuery("flagged"); ok {
		flagged, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeInvalidFlag, "flagged must be true or false")
			return
		}
		req.Flagged = &flagged
	}

	ctx := c.Request.Context()
	result, err := h.answerService.SetAuditFlag(ctx, req)
	if errors.Is(err, repository.ErrAuditEntryNotFound) {
		respondError(c, http.StatusNotFound, CodeNotFound, "Log entry not found")
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "flag audit log failed", "request_id", logging.RequestID(ctx), "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to update log entry")
		return
	}

	c.JSON(http.StatusOK, result.Entry)
}

// ExportLogs handles POST /admin/logs/export
func (h *AuditHandler) ExportLogs(c *gin.Context) {
	ctx := c.Request.Context()
	result, err := h.answerService.ExportAuditLog(ctx)
	if errors.Is(err, service.ErrArchiveNotConfigured) {
		respondError(c, http.StatusServiceUnavailable, CodeArchiveDisabled, err.Error())
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "export audit log failed", "request_id", logging.RequestID(ctx), "error", err)
		respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to export audit log")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"storage_path": result.StoragePath,
		"entries":      result.Entries,
	})
}
