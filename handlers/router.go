package handlers

import (
	"sparkai-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the HTTP settings of the router
type RouterConfig struct {
	AllowOrigin    string
	AdminTokenHash string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires the HTTP routes onto a gin engine
func NewRouter(answerService *service.AnswerService, cfg RouterConfig) *gin.Engine {
	askHandler := NewAskHandler(answerService)
	auditHandler := NewAuditHandler(answerService)
	standardsHandler := NewStandardsHandler(answerService)
	archiveHandler := NewArchiveHandler(answerService)
	limiter := NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := gin.New()
	r.Use(Recovery(), RequestID(), Logging(), CORS(cfg.AllowOrigin))

	r.GET("/health", Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/standards", standardsHandler.ListStandards)
	r.POST("/ask", limiter.Middleware(), askHandler.Ask)

	admin := r.Group("/admin", AdminAuth(cfg.AdminTokenHash))
	{
		admin.GET("/logs", auditHandler.ListLogs)
		admin.POST("/logs/export", auditHandler.ExportLogs)
		admin.POST("/logs/:id/flag", auditHandler.FlagLog)
		admin.GET("/archive/*path", archiveHandler.GetArchive)
		admin.DELETE("/archive/*path", archiveHandler.DeleteArchive)
	}

	return r
}
