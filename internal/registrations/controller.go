package registrations

import (
	"net/http"

	"campusbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	CheckEligibility(c *gin.Context)
	Register(c *gin.Context)
	Unregister(c *gin.Context)
	GetMyRegistration(c *gin.Context)
	ListAttendees(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// currentUserID reads the user id set by the JWT middleware.
func currentUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return "", false
	}
	userID, ok := value.(string)
	if !ok || userID == "" {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Invalid user ID format", nil, nil)
		return "", false
	}
	return userID, true
}

// CheckEligibility handles GET /api/v1/events/:eventId/eligibility
func (ctrl *controller) CheckEligibility(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	report, err := ctrl.service.EvaluateEligibility(c.Request.Context(), c.Param("eventId"), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Eligibility evaluated", report, nil)
}

// Register handles POST /api/v1/events/:eventId/registrations
func (ctrl *controller) Register(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := ctrl.service.Register(c.Request.Context(), c.Param("eventId"), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	if result.Attendee.Status == StatusWaitlisted {
		response.RespondJSON(c, "success", http.StatusAccepted, "Event is full, added to waitlist", result, nil)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Registered successfully", result, nil)
}

// Unregister handles DELETE /api/v1/events/:eventId/registrations
func (ctrl *controller) Unregister(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := ctrl.service.Unregister(c.Request.Context(), c.Param("eventId"), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Registration cancelled", result, nil)
}

func (ctrl *controller) GetMyRegistration(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	attendee, err := ctrl.service.GetRegistration(c.Request.Context(), c.Param("eventId"), userID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Registration retrieved", attendee, nil)
}

func (ctrl *controller) ListAttendees(c *gin.Context) {
	eventID := c.Param("eventId")
	attendees, err := ctrl.service.ListAttendees(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Attendees retrieved", newAttendeeListResponse(eventID, attendees), nil)
}
