package classifier

import (
	"errors"
	"fmt"
)

var (
	// ErrClassificationFailed is returned when every tier failed to produce a reply.
	ErrClassificationFailed = errors.New("classification failed")
	// ErrValidation marks replies that parsed but break the tagging rules.
	ErrValidation = errors.New("invalid classification")
	// ErrMalformedReply marks replies that could not be parsed as a JSON object.
	ErrMalformedReply = errors.New("malformed classifier reply")
	// ErrEmptyReply marks replies without message content.
	ErrEmptyReply = errors.New("empty classifier reply")
)

// HTTPError is a non-2xx response from the classification endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("classifier http %d: %s", e.StatusCode, e.Body)
}

// ValidationError reports the reply field that broke a tagging rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TierError attributes a failure to the tier that produced it.
type TierError struct {
	Tier Tier
	Err  error
}

func (e *TierError) Error() string {
	return fmt.Sprintf("%s tier: %v", e.Tier, e.Err)
}

func (e *TierError) Unwrap() error {
	return e.Err
}
