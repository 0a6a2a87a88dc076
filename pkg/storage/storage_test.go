package storage_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/phototag/pkg/lifecycle"
	"github.com/JaimeStill/phototag/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := storage.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.ContainerName != "photos" {
			t.Errorf("container_name = %s, want photos", cfg.ContainerName)
		}
		if cfg.MaxBlobBytes != storage.DefaultMaxBlobBytes {
			t.Errorf("max_blob_bytes = %d, want %d", cfg.MaxBlobBytes, storage.DefaultMaxBlobBytes)
		}
		if cfg.Enabled() {
			t.Error("storage should be disabled without a connection string")
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_CONTAINER", "uploads")
		t.Setenv("TEST_CONN", azuriteConnString)
		t.Setenv("TEST_MAX_BYTES", "1024")

		cfg := storage.Config{}
		err := cfg.Finalize(&storage.Env{
			ContainerName:    "TEST_CONTAINER",
			ConnectionString: "TEST_CONN",
			MaxBlobBytes:     "TEST_MAX_BYTES",
		})
		if err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.ContainerName != "uploads" || cfg.MaxBlobBytes != 1024 || !cfg.Enabled() {
			t.Errorf("got %+v", cfg)
		}
	})

	t.Run("negative limit", func(t *testing.T) {
		cfg := storage.Config{MaxBlobBytes: -1}
		err := cfg.Finalize(nil)
		if err == nil || !strings.Contains(err.Error(), "max_blob_bytes") {
			t.Errorf("err = %v, want max_blob_bytes error", err)
		}
	})
}

func TestConfigMerge(t *testing.T) {
	base := storage.Config{ContainerName: "photos", MaxBlobBytes: 10}
	base.Merge(&storage.Config{ConnectionString: "conn"})

	if base.ContainerName != "photos" || base.MaxBlobBytes != 10 || base.ConnectionString != "conn" {
		t.Errorf("merge result = %+v", base)
	}
}

func TestNew(t *testing.T) {
	t.Run("azure client", func(t *testing.T) {
		sys, err := storage.New(&storage.Config{
			ContainerName:    "photos",
			ConnectionString: azuriteConnString,
			MaxBlobBytes:     storage.DefaultMaxBlobBytes,
		}, slog.Default())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if !sys.Enabled() {
			t.Error("system should be enabled")
		}
	})

	t.Run("invalid connection string", func(t *testing.T) {
		_, err := storage.New(&storage.Config{
			ContainerName:    "photos",
			ConnectionString: "not-a-connection-string",
		}, slog.Default())
		if err == nil {
			t.Fatal("expected error for invalid connection string")
		}
	})
}

func TestDisabledSystem(t *testing.T) {
	sys, err := storage.New(&storage.Config{ContainerName: "photos"}, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if sys.Enabled() {
		t.Error("system should be disabled")
	}
	if err := sys.Start(lifecycle.New()); err != nil {
		t.Errorf("Start() error = %v", err)
	}
	if _, err := sys.Read(context.Background(), "a.jpg"); !errors.Is(err, storage.ErrDisabled) {
		t.Errorf("Read() err = %v, want ErrDisabled", err)
	}
	if _, err := sys.Exists(context.Background(), "a.jpg"); !errors.Is(err, storage.ErrDisabled) {
		t.Errorf("Exists() err = %v, want ErrDisabled", err)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"", storage.ErrEmptyKey},
		{"../etc/passwd", storage.ErrInvalidKey},
		{"albums/2024/beach.jpg", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := storage.ValidateKey(tt.key); !errors.Is(err, tt.want) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", storage.ErrNotFound, http.StatusNotFound},
		{"empty key", storage.ErrEmptyKey, http.StatusBadRequest},
		{"invalid key", storage.ErrInvalidKey, http.StatusBadRequest},
		{"too large", storage.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{"disabled", storage.ErrDisabled, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
