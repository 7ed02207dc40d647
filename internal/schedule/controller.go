package schedule

import (
	"net/http"

	"campusbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	CheckConflicts(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CheckConflicts handles POST /api/v1/conflicts/check
func (ctrl *controller) CheckConflicts(c *gin.Context) {
	var req CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	message := "Slot is available"
	if !result.Available {
		message = "Slot conflicts with existing bookings"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, result, nil)
}
