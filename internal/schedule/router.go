package schedule

import (
	"github.com/gin-gonic/gin"
)

// SetupConflictRoutes configures the conflict check routes
func SetupConflictRoutes(rg *gin.RouterGroup, controller Controller, guards ...gin.HandlerFunc) {
	conflicts := rg.Group("/conflicts")
	conflicts.Use(guards...)
	{
		conflicts.POST("/check", controller.CheckConflicts) // POST /api/v1/conflicts/check
	}
}
