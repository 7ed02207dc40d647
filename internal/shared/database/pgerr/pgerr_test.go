package pgerr

import (
	"errors"
	"fmt"
	"testing"

	"campusbook/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	serialization := fmt.Errorf("commit: %w", &pgconn.PgError{Code: SerializationFailure})
	assert.ErrorIs(t, Translate("register", serialization), apperror.ErrConflict)

	rejected := apperror.Rejected("no", []string{"deadline_passed"}, nil)
	assert.Same(t, rejected, Translate("register", rejected))

	boom := errors.New("connection refused")
	err := Translate("register", boom)
	assert.ErrorIs(t, err, boom)
	assert.False(t, apperror.Retryable(err))

	assert.NoError(t, Translate("register", nil))
}

func TestIsContention(t *testing.T) {
	assert.True(t, IsContention(&pgconn.PgError{Code: UniqueViolation}))
	assert.True(t, IsContention(&pgconn.PgError{Code: DeadlockDetected}))
	assert.False(t, IsContention(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, IsContention(errors.New("plain")))
}
