package tags

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound        = errors.New("tag not found")
	ErrDuplicate       = errors.New("tag already exists")
	ErrInvalidCategory = errors.New("invalid tag category")
)

// MapHTTPStatus maps tag domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCategory):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
