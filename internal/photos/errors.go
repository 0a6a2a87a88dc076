package photos

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/pkg/storage"
)

var (
	ErrNotFound  = errors.New("photo not found")
	ErrDuplicate = errors.New("photo already exists")
	ErrNoLocator = errors.New("photo metadata has no image locator")
)

// MapHTTPStatus maps photo domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoLocator),
		errors.Is(err, classifications.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrEmptyKey),
		errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrDisabled):
		return storage.MapHTTPStatus(err)
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
