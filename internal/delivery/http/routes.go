package http

import (
	"github.com/gin-gonic/gin"

	"github.com/savemate/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		comparisons := v1.Group("/comparisons")
		{
			comparisons.POST("", handler.StartComparison)
			comparisons.GET("/:key", handler.GetComparison)
			comparisons.DELETE("/:key", handler.ClearComparison)
		}

		v1.POST("/extract", handler.ExtractProduct)

		purchases := v1.Group("/purchases")
		{
			purchases.POST("", handler.RecordPurchase)
			purchases.GET("", handler.GetHistory)
		}

		feed := v1.Group("/feed")
		{
			feed.POST("/check", handler.CheckFeed)
			feed.PUT("/context", handler.UpdateFeedContext)
		}
	}

	return router
}
