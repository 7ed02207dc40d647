package events

import (
	"net/http"

	"campusbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	CreateEvent(c *gin.Context)
	GetEvent(c *gin.Context)
	ApproveEvent(c *gin.Context)
	UpdateStatus(c *gin.Context)
	UpdateCapacity(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := ctrl.service.CreateEvent(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Event created successfully", event, nil)
}

func (ctrl *controller) GetEvent(c *gin.Context) {
	event, err := ctrl.service.GetEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

func (ctrl *controller) ApproveEvent(c *gin.Context) {
	event, err := ctrl.service.ApproveEvent(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	message := "Event approved successfully"
	if event.Unavailable {
		message = "Event approved but marked unavailable: venue is double-booked"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, event, nil)
}

func (ctrl *controller) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := ctrl.service.UpdateStatus(c.Request.Context(), c.Param("eventId"), Status(req.Status))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event status updated", event, nil)
}

func (ctrl *controller) UpdateCapacity(c *gin.Context) {
	var req UpdateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := ctrl.service.IncreaseCapacity(c.Request.Context(), c.Param("eventId"), req.MaxAttendees)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event capacity updated", event, nil)
}
