// Package pgerr classifies PostgreSQL errors raised inside ledger transactions.
package pgerr

import (
	"errors"
	"fmt"

	"campusbook/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE codes that mean another writer got there first
const (
	SerializationFailure = "40001"
	DeadlockDetected     = "40P01"
	LockNotAvailable     = "55P03"
	UniqueViolation      = "23505"
	ExclusionViolation   = "23P01"
)

// IsContention reports whether err is a transient failure caused by a concurrent writer.
func IsContention(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case SerializationFailure, DeadlockDetected, LockNotAvailable, UniqueViolation, ExclusionViolation:
		return true
	}
	return false
}

// Translate leaves domain errors alone, turns contention into a retryable Conflict and wraps
// everything else with message.
func Translate(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if IsContention(err) {
		return apperror.Conflict(message, err)
	}
	return fmt.Errorf("%s: %w", message, err)
}
