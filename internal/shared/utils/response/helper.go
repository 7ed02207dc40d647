package response

import (
	"errors"
	"strconv"

	"campusbook/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError writes err using the status code of its apperror kind. Conflicts carry a
// Retry-After header; rejections carry their reason codes.
func RespondError(c *gin.Context, err error) {
	code := apperror.HTTPStatus(err)

	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		RespondJSON(c, "error", code, "Internal server error", nil, nil)
		return
	}

	if appErr.Kind == apperror.KindConflict {
		c.Header("Retry-After", strconv.Itoa(1))
	}

	RespondJSON(c, "error", code, appErr.Message, nil, ErrorBody{
		Kind:      string(appErr.Kind),
		Retryable: apperror.Retryable(appErr),
		Reasons:   appErr.Reasons,
		Details:   appErr.Details,
	})
}
