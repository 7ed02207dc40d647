package events

import (
	"campusbook/internal/shared/middleware"
	"campusbook/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("/:eventId", controller.GetEvent) // GET /api/v1/events/:eventId
	}

	adminEvents := router.Group("/admin/events")
	adminEvents.Use(auth, middleware.RequireRoles(string(users.RoleAdmin), string(users.RoleOrganizer)))
	{
		adminEvents.POST("", controller.CreateEvent) // POST /api/v1/admin/events
	}

	approvals := router.Group("/admin/events")
	approvals.Use(auth, middleware.RequireAdmin())
	{
		approvals.POST("/:eventId/approve", controller.ApproveEvent)     // POST /api/v1/admin/events/:eventId/approve
		approvals.PATCH("/:eventId/status", controller.UpdateStatus)     // PATCH /api/v1/admin/events/:eventId/status
		approvals.PATCH("/:eventId/capacity", controller.UpdateCapacity) // PATCH /api/v1/admin/events/:eventId/capacity
	}
}
