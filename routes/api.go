package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/unit-selector/app/controllers"
)

// SetupAPIRoutes wires the versioned API surface.
func SetupAPIRoutes(router *gin.Engine, selectorController *controllers.SelectorController, adminController *controllers.AdminController) {
	v1 := router.Group("/api/v1")
	{
		// Unit selection routes
		selector := v1.Group("/selector")
		{
			selector.POST("/normalize", selectorController.Normalize)
			selector.GET("/suggest", selectorController.Suggest)
			selector.POST("/select", selectorController.Select)
			selector.GET("/value", selectorController.GetValue)
			selector.POST("/site", selectorController.SetSite)
			selector.GET("/buildings", selectorController.Buildings)
			selector.GET("/buildings/:building/units", selectorController.Candidates)
		}

		// History routes
		history := v1.Group("/history")
		{
			history.GET("", selectorController.History)
			history.POST("/favorites/toggle", selectorController.ToggleFavorite)
			history.DELETE("", selectorController.ClearHistory)
		}

		// Admin routes
		admin := v1.Group("/admin")
		{
			admin.POST("/profiles/refresh", adminController.RefreshProfile)
			admin.POST("/profiles/invalidate", adminController.InvalidateProfiles)
			admin.GET("/stats", adminController.GetStats)
		}

		// Health check route
		v1.GET("/health", selectorController.HealthCheck)
	}
}

// SetupHealthRoutes exposes the unversioned probes.
func SetupHealthRoutes(router *gin.Engine, selectorController *controllers.SelectorController) {
	// Root health check
	router.GET("/health", selectorController.HealthCheck)

	// Readiness check
	router.GET("/ready", selectorController.HealthCheck)

	// Liveness check
	router.GET("/live", selectorController.HealthCheck)
}

// SetupAllRoutes wires middleware and every route group.
func SetupAllRoutes(router *gin.Engine, selectorController *controllers.SelectorController, adminController *controllers.AdminController) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, selectorController)
	SetupAPIRoutes(router, selectorController, adminController)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

// setupMiddleware installs the shared middleware stack.
func setupMiddleware(router *gin.Engine) {
	// Recovery middleware
	router.Use(gin.Recovery())

	// Logger middleware
	router.Use(gin.Logger())
}
