package incidents

import (
	"errors"
	"net/http"
)

// Domain errors for incident operations.
var (
	ErrNotFound       = errors.New("incident not found")
	ErrDuplicate      = errors.New("incident already exists")
	ErrInvalidRequest = errors.New("invalid incident request")
	ErrMissingStory   = errors.New("story is required")
	ErrFileTooLarge   = errors.New("file exceeds maximum upload size")
	ErrUnauthorized   = errors.New("caller identity required")
)

// MapHTTPStatus maps incident domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrMissingStory) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
