package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes serves the banner and endpoint listing.
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		// Home page
		web.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "Unit Selector Service",
				"version": "1.0.0",
				"docs":    "/docs",
			})
		})

		// API documentation
		web.GET("/docs", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"api": "Unit Selector API v1",
				"endpoints": map[string]string{
					"normalize":       "POST /api/v1/selector/normalize",
					"suggest":         "GET /api/v1/selector/suggest",
					"select":          "POST /api/v1/selector/select",
					"value":           "GET /api/v1/selector/value",
					"site":            "POST /api/v1/selector/site",
					"buildings":       "GET /api/v1/selector/buildings",
					"units":           "GET /api/v1/selector/buildings/:building/units",
					"history":         "GET /api/v1/history",
					"toggle_favorite": "POST /api/v1/history/favorites/toggle",
					"clear_history":   "DELETE /api/v1/history",
					"health":          "GET /api/v1/health",
				},
			})
		})

		// Status page
		web.GET("/status", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "running",
				"service": "Unit Selector",
			})
		})
	}
}
