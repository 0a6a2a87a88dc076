// Package photos reads the upstream photo catalog. Photos are owned by another
// system; this package never writes them. It also resolves a photo's image
// locator into a URL the classification service can fetch.
package photos

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/classifications"
)

// Photo is an upstream catalog entry joined with its classification status.
type Photo struct {
	ID         uuid.UUID              `json:"id"`
	Metadata   json.RawMessage        `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
	Status     classifications.Status `json:"status"`
	RetryCount int                    `json:"retry_count"`
}

type metadata struct {
	ImageURL   string `json:"image_url"`
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
}

// Locator returns the image reference from the photo metadata. image_url is
// preferred, then storage_key, then url.
func (p Photo) Locator() (string, error) {
	if len(p.Metadata) == 0 {
		return "", fmt.Errorf("%w: photo %s has no metadata", ErrNoLocator, p.ID)
	}

	var m metadata
	if err := json.Unmarshal(p.Metadata, &m); err != nil {
		return "", fmt.Errorf("%w: photo %s metadata: %v", ErrNoLocator, p.ID, err)
	}

	for _, candidate := range []string{m.ImageURL, m.StorageKey, m.URL} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: photo %s", ErrNoLocator, p.ID)
}
