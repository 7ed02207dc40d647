package resources

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleAuth(c *gin.Context) {
	c.Set("user_id", "tester")
	c.Set("user_role", c.GetHeader("X-Role"))
	c.Next()
}

func setupResourceRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc, _ := newTestService()
	SetupResourceRoutes(r.Group("/api/v1"), NewController(svc), roleAuth)
	return r
}

func send(r http.Handler, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", role)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAssignmentEndpoints(t *testing.T) {
	r := setupResourceRouter(t)
	body := map[string]interface{}{"date": "2025-03-01", "time": "10:00", "duration_hours": 2, "event_id": "evt-1"}

	w := send(r, http.MethodPost, "/api/v1/resources/projector-1/assignments", "STUDENT", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(r, http.MethodPost, "/api/v1/resources/projector-1/assignments", "ORGANIZER", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data Assignment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, StatusPending, created.Data.Status)

	w = send(r, http.MethodPost, "/api/v1/resources/projector-1/assignments", "ADMIN", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), ReasonResourceConflict)

	approve := "/api/v1/assignments/" + created.Data.ID + "/approve"
	assert.Equal(t, http.StatusForbidden, send(r, http.MethodPost, approve, "ORGANIZER", nil).Code)
	assert.Equal(t, http.StatusOK, send(r, http.MethodPost, approve, "ADMIN", nil).Code)

	w = send(r, http.MethodGet, "/api/v1/resources/projector-1/assignments", "STUDENT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)

	release := "/api/v1/assignments/" + created.Data.ID + "/release"
	assert.Equal(t, http.StatusOK, send(r, http.MethodPost, release, "ORGANIZER", nil).Code)

	assert.Equal(t, http.StatusNotFound, send(r, http.MethodGet, "/api/v1/assignments/nope", "ADMIN", nil).Code)
}

func TestAssignRejectsMalformedBody(t *testing.T) {
	r := setupResourceRouter(t)

	w := send(r, http.MethodPost, "/api/v1/resources/projector-1/assignments", "ADMIN",
		map[string]interface{}{"date": "2025-03-01", "time": "10:00", "duration_hours": 30, "event_id": "evt-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
