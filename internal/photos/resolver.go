package photos

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/phototag/pkg/storage"
)

// BlobReader reads stored image bytes.
type BlobReader interface {
	Read(ctx context.Context, key string) (*storage.Blob, error)
}

// Resolver turns a photo locator into an image URL the classification
// service accepts.
type Resolver struct {
	blobs  BlobReader
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by blobs. blobs may be nil when only
// absolute URLs are expected.
func NewResolver(blobs BlobReader, logger *slog.Logger) *Resolver {
	return &Resolver{
		blobs:  blobs,
		logger: logger.With("system", "photos", "component", "resolver"),
	}
}

// Resolve returns http(s) and data URIs unchanged. Any other locator is a
// storage key whose blob is inlined as a base64 data URI.
func (r *Resolver) Resolve(ctx context.Context, locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", ErrNoLocator
	}

	lower := strings.ToLower(locator)
	if strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:") {
		return locator, nil
	}

	if r.blobs == nil {
		return "", fmt.Errorf("resolve %q: %w", locator, storage.ErrDisabled)
	}

	blob, err := r.blobs.Read(ctx, locator)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", locator, err)
	}

	contentType := blob.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(blob.Data)
	}

	r.logger.Debug("inlined stored image", "key", locator, "bytes", len(blob.Data), "content_type", contentType)

	return DataURI(contentType, blob.Data), nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
