package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"sparkai-backend/llm"
	"sparkai-backend/logging"
	"sparkai-backend/service"

	"github.com/gin-gonic/gin"
)

// AskHandler handles HTTP requests for questions
type AskHandler struct {
	answerService *service.AnswerService
}

// NewAskHandler creates a new ask handler
func NewAskHandler(answerService *service.AnswerService) *AskHandler {
	return &AskHandler{answerService: answerService}
}

// AskRequest represents the request body for asking a question
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskResponse represents the answer to a question
type AskResponse struct {
	Answer     string   `json:"answer"`
	Confidence *float64 `json:"confidence"`
}

// Ask handles POST /ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	result, err := h.answerService.Ask(ctx, service.AskRequest{Question: req.Question})
	if err != nil {
		var upstream *llm.UpstreamError
		switch {
		case errors.Is(err, service.ErrEmptyQuestion):
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		case errors.Is(err, service.ErrQuestionTooLong):
			respondError(c, http.StatusBadRequest, CodeQuestionTooLong, err.Error())
		case errors.As(err, &upstream):
			respondError(c, http.StatusBadGateway, CodeUpstreamFailed, "The answer service is unavailable, please try again")
		default:
			slog.ErrorContext(ctx, "ask failed", "request_id", logging.RequestID(ctx), "error", err)
			respondError(c, http.StatusInternalServerError, CodeInternal, "Failed to answer question")
		}
		return
	}

	c.JSON(http.StatusOK, AskResponse{
		Answer:     result.Answer,
		Confidence: result.Confidence,
	})
}
