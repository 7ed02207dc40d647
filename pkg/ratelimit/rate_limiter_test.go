package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func testConfig() *Config {
	return &Config{
		Enabled:              true,
		WindowDuration:       time.Minute,
		DefaultRequests:      60,
		PublicRequests:       100,
		RegistrationRequests: 2,
		AdminRequests:        200,
		HealthRequests:       300,
		WhitelistedIPs:       []string{"10.0.0.1"},
	}
}

func newTestLimiter(t *testing.T) (*RateLimiter, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	rl := NewRateLimiter(client, testConfig())
	rl.now = func() time.Time { return fixedNow }
	return rl, mock
}

func expectWindow(mock redismock.ClientMock, key string, limit int) *redismock.ExpectedCmd {
	return mock.ExpectEval(slidingWindowScript, []string{key},
		fixedNow.Add(-time.Minute).UnixMilli(),
		fixedNow.UnixMilli(),
		limit,
		60,
		fixedNow.UnixNano(),
	)
}

func TestIsAllowed(t *testing.T) {
	rl, mock := newTestLimiter(t)
	ctx := context.Background()
	key := "campusbook:ratelimit:1.2.3.4:registration"

	expectWindow(mock, key, 2).SetVal([]interface{}{int64(2), int64(0)})
	result, err := rl.IsAllowed(ctx, "1.2.3.4", RateLimitTypeRegistration)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)

	expectWindow(mock, key, 2).SetVal([]interface{}{int64(3), int64(0)})
	result, err = rl.IsAllowed(ctx, "1.2.3.4", RateLimitTypeRegistration)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	expectWindow(mock, key, 2).SetErr(errors.New("connection refused"))
	_, err = rl.IsAllowed(ctx, "1.2.3.4", RateLimitTypeRegistration)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhitelistAndDisabledSkipRedis(t *testing.T) {
	rl, mock := newTestLimiter(t)

	result, err := rl.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeRegistration)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	rl.config.Enabled = false
	result, err = rl.IsAllowed(context.Background(), "1.2.3.4", RateLimitTypePublic)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Remaining)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitType(t *testing.T) {
	cases := map[string]RateLimitType{
		"/health":                                   RateLimitTypeHealth,
		"/api/v1/admin/events/:eventId/approve":     RateLimitTypeAdmin,
		"/api/v1/events/:eventId/attendees":         RateLimitTypeAdmin,
		"/api/v1/events/:eventId/registrations":     RateLimitTypePublic,
		"/api/v1/conflicts/check":                   RateLimitTypePublic,
		"/api/v1/resources/:resourceId/assignments": RateLimitTypePublic,
		"/api/v1/assignments/:assignmentId/release": RateLimitTypeAdmin,
		"/api/v1/assignments/:assignmentId/approve": RateLimitTypeAdmin,
		"/api/v1/assignments/:assignmentId":         RateLimitTypePublic,
		"": RateLimitTypeDefault,
	}
	for path, want := range cases {
		assert.Equal(t, want, getRateLimitType(path), path)
	}
}

func TestForTypeRejectsOverLimit(t *testing.T) {
	rl, mock := newTestLimiter(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", ForType(rl, RateLimitTypeRegistration), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	expectWindow(mock, "campusbook:ratelimit:192.0.2.1:registration", 2).SetVal([]interface{}{int64(3), int64(0)})

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
