package api

import (
	routes "floodmap/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine) {
	// API group
	api := r.Group("/api")

	// Setup main handlers
	routes.SetupMainHandlers(r.Group(""))

	// Setup zone and transform handlers
	routes.SetupZoneHandlers(api)
	routes.SetupTransformHandlers(api)
}
