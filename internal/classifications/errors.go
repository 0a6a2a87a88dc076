package classifications

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound      = errors.New("photo not found")
	ErrDuplicate     = errors.New("classification already exists")
	ErrInvalidStatus = errors.New("invalid classification status")
	ErrEmptyQuery    = errors.New("search query has no usable terms")
	ErrInvalidID     = errors.New("invalid photo id")
	ErrNotClaimed    = errors.New("photo has no classification in progress")
)

// MapHTTPStatus maps classification domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrNotClaimed):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrEmptyQuery),
		errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
