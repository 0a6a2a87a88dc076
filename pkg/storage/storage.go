// Package storage provides read access to photo blobs held in Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/JaimeStill/phototag/pkg/lifecycle"
)

// Blob is a fully read blob and its reported content type.
type Blob struct {
	Key         string
	ContentType string
	Data        []byte
}

// System manages blob reads and lifecycle coordination.
type System interface {
	// Enabled reports whether the system is backed by a real container.
	Enabled() bool
	// Start registers a startup hook that verifies the container is reachable.
	Start(lc *lifecycle.Coordinator) error
	// Read downloads the blob at key into memory, bounded by the configured limit.
	// Returns ErrNotFound if the blob does not exist.
	Read(ctx context.Context, key string) (*Blob, error)
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates a storage system from the given configuration.
// A config without a connection string yields a disabled system whose
// reads fail with ErrDisabled.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage")

	if !cfg.Enabled() {
		return disabled{logger: logger}, nil
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &azure{
		client:    client,
		container: cfg.ContainerName,
		maxBytes:  cfg.MaxBlobBytes,
		logger:    logger,
	}, nil
}

type azure struct {
	client    *azblob.Client
	container string
	maxBytes  int64
	logger    *slog.Logger
}

func (a *azure) Enabled() bool { return true }

func (a *azure) Start(lc *lifecycle.Coordinator) error {
	a.logger.Info("starting storage system", "container", a.container)

	lc.OnStartup(func() {
		props := a.client.ServiceClient().NewContainerClient(a.container)
		if _, err := props.GetProperties(lc.Context(), nil); err != nil {
			if bloberror.HasCode(err, bloberror.ContainerNotFound) {
				a.logger.Warn("storage container missing", "container", a.container)
				return
			}
			a.logger.Error("storage container check failed", "error", err)
			return
		}

		a.logger.Info("storage container ready", "container", a.container)
	})

	return nil
}

func (a *azure) Read(ctx context.Context, key string) (*Blob, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download blob %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != nil && *resp.ContentLength > a.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, key, *resp.ContentLength)
	}

	data, err := readLimited(resp.Body, a.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}

	blob := &Blob{Key: key, Data: data}
	if resp.ContentType != nil {
		blob.ContentType = *resp.ContentType
	}
	return blob, nil
}

func (a *azure) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	blobClient := a.client.
		ServiceClient().
		NewContainerClient(a.container).
		NewBlobClient(key)

	_, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check blob existence %s: %w", key, err)
	}

	return true, nil
}

type disabled struct {
	logger *slog.Logger
}

func (d disabled) Enabled() bool { return false }

func (d disabled) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("storage disabled, bare storage keys will not resolve")
	return nil
}

func (d disabled) Read(ctx context.Context, key string) (*Blob, error) {
	return nil, ErrDisabled
}

func (d disabled) Exists(ctx context.Context, key string) (bool, error) {
	return false, ErrDisabled
}

// ValidateKey rejects empty keys and keys containing a ".." segment.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
