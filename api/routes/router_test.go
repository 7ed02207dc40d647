package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusbook/internal/registrations"
	"campusbook/internal/shared/config"
	"campusbook/internal/shared/database"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryRouter(t *testing.T) (*Router, *config.Config) {
	t.Helper()
	t.Setenv("LEDGER_STORE", "memory")
	t.Setenv("JWT_SECRET", "routes-test-secret")
	cfg := config.Load()
	return NewRouter(cfg, &database.DB{}, nil, nil), cfg
}

func newMemoryEngine(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	r, cfg := newMemoryRouter(t)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	r.SetupRoutes(engine)
	return engine, cfg
}

func bearer(t *testing.T, cfg *config.Config, userID, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func do(engine http.Handler, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthRoutes(t *testing.T) {
	engine, _ := newMemoryEngine(t)

	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(engine, http.MethodGet, "/ping", "", nil).Code)

	w := do(engine, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ledger_store":"memory"`)
}

func TestStatusReportsReconciler(t *testing.T) {
	r, _ := newMemoryRouter(t)
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	r.SetupRoutes(engine)

	w := do(engine, http.MethodGet, "/status", "", nil)
	assert.NotContains(t, w.Body.String(), "waitlist_reconciler")

	jp := registrations.NewJobProcessor(r.Services().Registrations, &registrations.JobConfig{ReconcileInterval: time.Hour})
	r.AttachReconciler(jp)
	jp.Start(context.Background())

	w = do(engine, http.MethodGet, "/status", "", nil)
	assert.Contains(t, w.Body.String(), `"waitlist_reconciler":{`)
	assert.Contains(t, w.Body.String(), `"status":"running"`)

	jp.Stop()
	w = do(engine, http.MethodGet, "/status", "", nil)
	assert.Contains(t, w.Body.String(), `"status":"stopped"`)
}

func TestSeededLedgerEndToEnd(t *testing.T) {
	engine, cfg := newMemoryEngine(t)
	student := bearer(t, cfg, "stu-01", "STUDENT")

	w := do(engine, http.MethodGet, "/api/v1/events/evt-orientation", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/events/evt-orientation/eligibility", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_eligible":true`)

	w = do(engine, http.MethodPost, "/api/v1/events/evt-orientation/registrations", student, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// the seminar overlaps the orientation for the same student
	w = do(engine, http.MethodPost, "/api/v1/events/evt-ml-seminar/registrations", student, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "time_conflict")

	// staff-only event
	w = do(engine, http.MethodPost, "/api/v1/events/evt-staff-briefing/registrations", student, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "role_ineligible")

	w = do(engine, http.MethodDelete, "/api/v1/events/evt-orientation/registrations", student, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConflictCheckAgainstSeededVenue(t *testing.T) {
	engine, _ := newMemoryEngine(t)
	date := time.Now().In(time.UTC).AddDate(0, 0, 7).Format("2006-01-02")

	w := do(engine, http.MethodPost, "/api/v1/conflicts/check", "", map[string]interface{}{
		"date":           date,
		"time":           "11:00",
		"duration_hours": 1,
		"resource_key":   "Main Auditorium",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Available bool `json:"available"`
			Conflicts []struct {
				Severity string `json:"severity"`
			} `json:"conflicts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.Available)
	require.Len(t, body.Data.Conflicts, 1)
	assert.Equal(t, "high", body.Data.Conflicts[0].Severity)

	w = do(engine, http.MethodPost, "/api/v1/conflicts/check", "", map[string]interface{}{
		"date":         date,
		"time":         "11:00",
		"resource_key": "projector-aud-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":false`)
}

func TestResourceAssignmentRequiresManager(t *testing.T) {
	engine, cfg := newMemoryEngine(t)
	body := map[string]interface{}{
		"date":     time.Now().UTC().AddDate(0, 0, 20).Format("2006-01-02"),
		"time":     "09:00",
		"event_id": "evt-hackathon",
	}

	w := do(engine, http.MethodPost, "/api/v1/resources/laser-cutter/assignments", bearer(t, cfg, "stu-02", "STUDENT"), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(engine, http.MethodPost, "/api/v1/resources/laser-cutter/assignments", bearer(t, cfg, "org-ana", "ORGANIZER"), body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(engine, http.MethodPost, "/api/v1/resources/laser-cutter/assignments", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
