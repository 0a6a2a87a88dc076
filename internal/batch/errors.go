package batch

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/internal/classifier"
	"github.com/JaimeStill/phototag/internal/photos"
)

var (
	// ErrInProgress is returned when a single-item run finds the photo claimed
	// by a live attempt.
	ErrInProgress = errors.New("photo classification already in progress")
	// ErrPanic wraps a recovered panic from a single item.
	ErrPanic = errors.New("item processing panicked")
	// ErrInvalidLimit rejects non-numeric or negative limits.
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)

// MapHTTPStatus maps orchestration errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, photos.ErrNotFound), errors.Is(err, classifications.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidLimit), errors.Is(err, classifications.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, classifier.ErrValidation), errors.Is(err, photos.ErrNoLocator):
		return http.StatusUnprocessableEntity
	case errors.Is(err, classifier.ErrClassificationFailed):
		return http.StatusBadGateway
	default:
		return photos.MapHTTPStatus(err)
	}
}
