package handlers

import (
	"github.com/gin-gonic/gin"
)

// Error codes returned in the error envelope
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeQuestionTooLong = "QUESTION_TOO_LONG"
	CodeInvalidLimit    = "INVALID_LIMIT"
	CodeInvalidFlag     = "INVALID_FLAG"
	CodeNotFound        = "NOT_FOUND"
	CodeUpstreamFailed  = "UPSTREAM_FAILED"
	CodeArchiveDisabled = "ARCHIVE_NOT_CONFIGURED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
)

// respondError writes {"success": false, "error": {"code", "message"}} and aborts
func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
