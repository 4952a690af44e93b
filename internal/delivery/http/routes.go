package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/incilens/backend/config"
	"github.com/incilens/backend/internal/infrastructure/metrics"
)

// SetupRouter creates and configures the Gin router.
// m may be nil, in which case /metrics is not mounted.
func SetupRouter(cfg *config.Config, handler *Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware(m))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	limited := RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst, m)

	// Route used by the original web frontend
	router.POST("/analyze-inci", limited, handler.AnalyzeINCI)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		inci := v1.Group("/inci", limited)
		{
			inci.POST("/analyze", handler.AnalyzeINCI)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/stats", handler.CatalogStats)
		}
	}

	return router
}
