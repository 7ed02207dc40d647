package resources

import (
	"net/http"

	"campusbook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	Assign(c *gin.Context)
	ListAssignments(c *gin.Context)
	GetAssignment(c *gin.Context)
	Approve(c *gin.Context)
	Release(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// Assign handles POST /api/v1/resources/:resourceId/assignments
func (ctrl *controller) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	assignment, err := ctrl.service.AssignSlot(c.Request.Context(), c.Param("resourceId"), req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Resource assignment requested", assignment, nil)
}

func (ctrl *controller) ListAssignments(c *gin.Context) {
	assignments, err := ctrl.service.ListByResource(c.Request.Context(), c.Param("resourceId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if assignments == nil {
		assignments = []Assignment{}
	}

	response.RespondJSON(c, "success", http.StatusOK, "Assignments retrieved", assignments, nil)
}

func (ctrl *controller) GetAssignment(c *gin.Context) {
	assignment, err := ctrl.service.Get(c.Request.Context(), c.Param("assignmentId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Assignment retrieved", assignment, nil)
}

func (ctrl *controller) Approve(c *gin.Context) {
	assignment, err := ctrl.service.Approve(c.Request.Context(), c.Param("assignmentId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Assignment approved", assignment, nil)
}

func (ctrl *controller) Release(c *gin.Context) {
	assignment, err := ctrl.service.Release(c.Request.Context(), c.Param("assignmentId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Assignment released", assignment, nil)
}
