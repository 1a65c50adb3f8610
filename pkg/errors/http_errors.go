package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// FromStatus maps a non-OK backend status code to an AppError
func FromStatus(statusCode int, body string) *AppError {
	msg := fmt.Sprintf("backend returned status %d", statusCode)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewUnauthorizedError(msg)
	default:
		return NewAPIError(statusCode, msg)
	}
}

// FromTransport classifies a request error: explicit cancellation is kept
// distinct from real I/O failures so callers can swallow it silently.
func FromTransport(err error) *AppError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCanceledError("request aborted").WithCause(err)
	}
	return NewTransportError(err.Error()).WithCause(err)
}

// IsCanceled reports whether err is an explicit cancellation, either raw
// context errors or an already-classified AppError.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return Is(err, CodeCanceled)
}
