// Package classifications persists per-photo classification state: the status
// row driving the batch state machine, the tag rewrite performed on success,
// and keyword search over the store-maintained full-text index.
package classifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/tags"
)

// Status is the lifecycle position of a photo's classification.
type Status string

const (
	// Pending is reported for photos with no classification row.
	Pending    Status = "pending"
	Processing Status = "processing"
	Completed  Status = "completed"
	Failed     Status = "failed"
)

// ParseStatus validates s as a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case Pending, Processing, Completed, Failed:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Classification is the state of one photo. Confidence, timestamps, and the
// error message are nil until the corresponding transition has happened.
type Classification struct {
	PhotoID        uuid.UUID  `json:"photo_id"`
	Status         Status     `json:"status"`
	Confidence     *float64   `json:"confidence"`
	RetryCount     int        `json:"retry_count"`
	LastAttemptAt  *time.Time `json:"last_attempt_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	ErrorMessage   *string    `json:"error_message"`
	SearchableText string     `json:"searchable_text"`
	Tags           []tags.Tag `json:"tags,omitempty"`
}

// Result is a validated classification ready to persist.
type Result struct {
	Content    []string `json:"content"`
	People     []string `json:"people"`
	Mood       []string `json:"mood"`
	Color      []string `json:"color"`
	Quality    []string `json:"quality"`
	Confidence float64  `json:"confidence"`

	// ConfidenceDefaulted marks a reply that carried no confidence value.
	ConfidenceDefaulted bool `json:"confidence_defaulted,omitempty"`
}

// Entry is one normalized tag of a result.
type Entry struct {
	Name     string        `json:"name"`
	Category tags.Category `json:"category"`
}

// Names returns the raw tag list for a category.
func (r Result) Names(c tags.Category) []string {
	switch c {
	case tags.Content:
		return r.Content
	case tags.People:
		return r.People
	case tags.Mood:
		return r.Mood
	case tags.Color:
		return r.Color
	case tags.Quality:
		return r.Quality
	}
	return nil
}

// Tags returns the normalized tags in category order. Empty names are dropped
// and a name appearing twice keeps its first category.
func (r Result) Tags() []Entry {
	seen := make(map[string]bool)
	var out []Entry

	for _, c := range tags.Categories() {
		for _, raw := range r.Names(c) {
			name := tags.Normalize(raw)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, Entry{Name: name, Category: c})
		}
	}

	return out
}

// SearchableText joins the normalized tags with single spaces in category order.
func (r Result) SearchableText() string {
	entries := r.Tags()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return strings.Join(names, " ")
}
