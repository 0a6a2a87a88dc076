// Package tags implements the normalized tag dictionary. Each tag is a unique
// name within one of five fixed categories, with a usage count equal to the
// number of photos currently linked to it.
package tags

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is one of the five fixed tag groupings.
type Category string

const (
	Content Category = "content"
	People  Category = "people"
	Mood    Category = "mood"
	Color   Category = "color"
	Quality Category = "quality"
)

var categories = []Category{Content, People, Mood, Color, Quality}

// Categories returns every category in canonical order. Searchable text and
// tag listings follow this order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory validates s as a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Tag is a dictionary entry.
type Tag struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Category   Category  `json:"category"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// MaxNameLength bounds a normalized tag name.
const MaxNameLength = 64

// Normalize lowercases name and collapses every run of characters outside
// [a-z0-9] into a single underscore, trimming underscores at either end.
// "Golden Hour!" becomes "golden_hour". An empty result means the name
// carries no usable characters.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pending := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	return b.String()
}
