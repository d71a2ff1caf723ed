package models

import "errors"

// Domain errors shared by the session, backend and tool layers.
var (
	ErrNotFound           = errors.New("requested item not found")
	ErrUnauthenticated    = errors.New("authentication required or invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrForbidden          = errors.New("action forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrRateLimited        = errors.New("too many requests")
	ErrBackendUnavailable = errors.New("analysis backend unavailable")
)

// ValidationError carries a message that is safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
