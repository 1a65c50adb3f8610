package errors

import (
	"fmt"
)

// Error codes for the client-side failure taxonomy. Everything the backend
// or the network can throw at us maps onto one of these before it reaches
// the UI layer.
const (
	CodeTransport      = "TRANSPORT_ERROR"
	CodeCanceled       = "CANCELED"
	CodeModeration     = "MODERATION_FLAGGED"
	CodeAPI            = "API_ERROR"
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeNotSignedIn    = "NOT_SIGNED_IN"
	CodeNoActiveChat   = "NO_ACTIVE_CHAT"
)

// AppError represents an application error with a stable code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// WithCause attaches the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// NewError creates a new application error
func NewError(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewTransportError creates an error for network-level failures
func NewTransportError(message string) *AppError {
	return NewError(CodeTransport, message)
}

// NewCanceledError marks an explicit user/context cancellation. It is never
// surfaced as a user-visible error.
func NewCanceledError(message string) *AppError {
	return NewError(CodeCanceled, message)
}

// NewModerationError creates the recoverable content-moderation error
func NewModerationError(message string) *AppError {
	return NewError(CodeModeration, message)
}

// NewAPIError creates an error for a non-OK backend response
func NewAPIError(statusCode int, message string) *AppError {
	e := NewError(CodeAPI, message)
	e.StatusCode = statusCode
	return e
}

// NewInvalidPayloadError creates an error for payloads filtered at the
// store/network boundary
func NewInvalidPayloadError(message string) *AppError {
	return NewError(CodeInvalidPayload, message)
}

// NewUnauthorizedError creates an error for a rejected bearer token
func NewUnauthorizedError(message string) *AppError {
	e := NewError(CodeUnauthorized, message)
	e.StatusCode = 401
	return e
}

// NewNoActiveChatError creates an error for operations that need a current
// conversation when none is selected
func NewNoActiveChatError() *AppError {
	return NewError(CodeNoActiveChat, "no active conversation")
}

// Is checks if the target error carries the given code
func Is(err error, code string) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Code == code
}
