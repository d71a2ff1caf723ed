package domain

import (
	"errors"
	"net/http"

	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/pkg/backend"
)

// ErrorStatus maps domain errors to the HTTP status sent to the browser.
func ErrorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrSessionExpired), errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrBackendUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// UserMessage returns a message and description safe to show in a banner.
func UserMessage(err error) (string, string) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return "Please check your input", verr.Error()
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		switch {
		case errors.Is(err, models.ErrValidation):
			return "The backend rejected the input", apiErr.Message
		case errors.Is(err, models.ErrUnauthenticated):
			return "Not authorized", apiErr.Message
		case errors.Is(err, models.ErrForbidden):
			return "Access denied", apiErr.Message
		case errors.Is(err, models.ErrRateLimited):
			return "The backend is busy", "Please wait a moment and try again."
		}
		return "Request failed", apiErr.Message
	}
	switch {
	case errors.Is(err, models.ErrSessionExpired):
		return "Your session has expired", "Please sign in again."
	case errors.Is(err, models.ErrRateLimited):
		return "Too many runs", "Please wait a moment before submitting again."
	case errors.Is(err, models.ErrBackendUnavailable):
		return "The analysis backend is unavailable", "Please try again later."
	case errors.Is(err, models.ErrNotFound):
		return "Not found", "The requested item does not exist or has expired."
	case errors.Is(err, models.ErrForbidden):
		return "Access denied", ""
	}
	return "Something went wrong", "An unexpected error occurred."
}
