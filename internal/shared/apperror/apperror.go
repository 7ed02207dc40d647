package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so callers can decide whether to retry.
type Kind string

const (
	KindInvalidRequest Kind = "invalid_request"
	KindRejected       Kind = "rejected"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindNotRegistered  Kind = "not_registered"
	KindInternal       Kind = "internal"
)

// Error is the error type returned by the scheduling and ledger services
type Error struct {
	Kind    Kind        `json:"kind"`
	Message string      `json:"message"`
	Reasons []string    `json:"reasons,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so errors.Is(err, apperror.ErrConflict) works
// for every conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrRejected       = &Error{Kind: KindRejected, Message: "rejected"}
	ErrConflict       = &Error{Kind: KindConflict, Message: "concurrent update, retry"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
	ErrNotRegistered  = &Error{Kind: KindNotRegistered, Message: "not registered"}
)

func InvalidRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// Rejected builds a non-retryable rejection carrying the failing check codes.
func Rejected(message string, reasons []string, details interface{}) *Error {
	return &Error{Kind: KindRejected, Message: message, Reasons: reasons, Details: details}
}

// Conflict marks transient contention; the whole operation may be retried.
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NotRegistered(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotRegistered, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may safely retry the operation.
func Retryable(err error) bool {
	return KindOf(err) == KindConflict
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindRejected:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindNotFound, KindNotRegistered:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
