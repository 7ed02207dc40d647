package registrations

import (
	"campusbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRegistrationRoutes mounts the ledger under /events/:eventId. writeGuards run before
// register and unregister only.
func SetupRegistrationRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc, writeGuards ...gin.HandlerFunc) {
	event := router.Group("/events/:eventId")
	event.Use(auth)
	{
		event.GET("/eligibility", controller.CheckEligibility)
		event.GET("/registrations/me", controller.GetMyRegistration)
		event.GET("/attendees", middleware.RequireAdmin(), controller.ListAttendees)

		// POST /api/v1/events/:eventId/registrations
		event.POST("/registrations", withGuards(writeGuards, controller.Register)...)
		// DELETE /api/v1/events/:eventId/registrations
		event.DELETE("/registrations", withGuards(writeGuards, controller.Unregister)...)
	}
}

func withGuards(guards []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, handler)
}
