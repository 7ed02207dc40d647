package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getLogLevel("warning"))
	assert.Equal(t, slog.LevelError, getLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getLogLevel(""))
}

func TestLogRegistrationWritesJSON(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info")
	l.LogRegistration(context.Background(), "evt-1", "user-1", "waitlisted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Registration", entry["msg"])
	assert.Equal(t, "evt-1", entry["event_id"])
	assert.Equal(t, "waitlisted", entry["status"])
}

func TestConflictCheckIsDebugOnly(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	NewWithWriter(&buf, "info").LogConflictCheck(context.Background(), "Hall A", "2025-01-10 14:00-16:00", true, 0)
	assert.Empty(t, buf.String())
}

func TestWithErrorAddsField(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	NewWithWriter(&buf, "info").WithError(errors.New("lock busy")).Error("Error reconciling waitlists")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "lock busy", entry["error"])
}

func TestSetDefault(t *testing.T) {
	previous := GetDefault()
	defer SetDefault(previous)

	var buf bytes.Buffer
	replacement := NewWithWriter(&buf, "info")
	SetDefault(replacement)

	assert.Same(t, replacement, GetDefault())
	GetDefault().Info("hello")
	assert.Contains(t, buf.String(), "hello")
}
