package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellmirror/backend/config"
	"github.com/wellmirror/backend/internal/api"
	"github.com/wellmirror/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	profileHandler *api.ProfileHandler,
	coachHandler *api.CoachHandler,
	generationLimiter *middleware.RateLimiter,
) *gin.Engine {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS middleware
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	profileHandler.RegisterRoutes(v1)

	// Generation is the expensive path; it carries a per-user quota
	coach := v1.Group("")
	coach.Use(generationLimiter.RateLimitMiddleware())
	coachHandler.RegisterRoutes(coach)

	return router
}
