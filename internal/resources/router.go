package resources

import (
	"campusbook/internal/shared/middleware"
	"campusbook/internal/users"

	"github.com/gin-gonic/gin"
)

// SetupResourceRoutes mounts the assignment ledger. writeGuards run before assign only.
func SetupResourceRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc, writeGuards ...gin.HandlerFunc) {
	managers := middleware.RequireRoles(string(users.RoleAdmin), string(users.RoleOrganizer))

	resources := router.Group("/resources/:resourceId")
	resources.Use(auth)
	{
		resources.GET("/assignments", controller.ListAssignments)

		assign := append([]gin.HandlerFunc{managers}, writeGuards...)
		resources.POST("/assignments", append(assign, controller.Assign)...)
	}

	assignments := router.Group("/assignments/:assignmentId")
	assignments.Use(auth)
	{
		assignments.GET("", controller.GetAssignment)
		assignments.POST("/approve", middleware.RequireAdmin(), controller.Approve)
		assignments.POST("/release", managers, controller.Release)
	}
}
