package handlers

import (
	"net/http"

	"sparkai-backend/service"

	"github.com/gin-gonic/gin"
)

// StandardsHandler reports the loaded corpus
type StandardsHandler struct {
	answerService *service.AnswerService
}

// NewStandardsHandler creates a new standards handler
func NewStandardsHandler(answerService *service.AnswerService) *StandardsHandler {
	return &StandardsHandler{answerService: answerService}
}

// ListStandards handles GET /standards
func (h *StandardsHandler) ListStandards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"standards": h.answerService.ListStandards()})
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
