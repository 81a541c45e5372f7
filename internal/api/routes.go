package api

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pdfquiz/internal/api/handlers"
	"pdfquiz/internal/logger"
	"pdfquiz/internal/monitoring"
)

// RouteConfig holds the router-level settings.
type RouteConfig struct {
	ServiceName string
	FrontendURL string
	SessionName string
	Sessions    sessions.Store
}

// SetupRoutes sets up the middleware chain and the API routes
func SetupRoutes(router *gin.Engine, handler *handlers.Handler, log *logger.Logger, cfg RouteConfig) {
	router.Use(
		otelgin.Middleware(cfg.ServiceName),
		RequestID(),
		RequestLogger(log),
		monitoring.MetricsMiddleware(),
		CORSMiddleware(cfg.FrontendURL),
	)

	router.GET("/healthz", handler.HandleHealth)
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.Use(sessions.Sessions(cfg.SessionName, cfg.Sessions))
	{
		api.GET("/status", handler.HandleStatus)
		api.POST("/documents/extract", handler.HandleExtract)

		api.POST("/quizzes/generate", handler.HandleGenerateQuiz)
		api.GET("/quizzes/current", handler.HandleGetCurrentQuiz)
		api.GET("/quizzes/current/download/:format", handler.HandleDownload)
	}
}
