// Package config loads the service configuration from TOML files and
// PHOTOTAG_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/phototag/internal/batch"
	"github.com/JaimeStill/phototag/internal/classifier"
	"github.com/JaimeStill/phototag/pkg/database"
	"github.com/JaimeStill/phototag/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvPhototagEnv             = "PHOTOTAG_ENV"
	EnvPhototagShutdownTimeout = "PHOTOTAG_SHUTDOWN_TIMEOUT"
	EnvPhototagVersion         = "PHOTOTAG_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "PHOTOTAG_DB_HOST",
	Port:            "PHOTOTAG_DB_PORT",
	Name:            "PHOTOTAG_DB_NAME",
	User:            "PHOTOTAG_DB_USER",
	Password:        "PHOTOTAG_DB_PASSWORD",
	SSLMode:         "PHOTOTAG_DB_SSL_MODE",
	MaxOpenConns:    "PHOTOTAG_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PHOTOTAG_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PHOTOTAG_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PHOTOTAG_DB_CONN_TIMEOUT",
	AutoMigrate:     "PHOTOTAG_DB_AUTO_MIGRATE",
}

var storageEnv = &storage.Env{
	ContainerName:    "PHOTOTAG_STORAGE_CONTAINER_NAME",
	ConnectionString: "PHOTOTAG_STORAGE_CONNECTION_STRING",
	MaxBlobBytes:     "PHOTOTAG_STORAGE_MAX_BLOB_BYTES",
}

var classifierEnv = &classifier.Env{
	BaseURL:        "PHOTOTAG_CLASSIFIER_BASE_URL",
	Token:          "PHOTOTAG_CLASSIFIER_TOKEN",
	PrimaryModel:   "PHOTOTAG_CLASSIFIER_PRIMARY_MODEL",
	SecondaryModel: "PHOTOTAG_CLASSIFIER_SECONDARY_MODEL",
	Timeout:        "PHOTOTAG_CLASSIFIER_TIMEOUT",
	MaxTokens:      "PHOTOTAG_CLASSIFIER_MAX_TOKENS",
	Temperature:    "PHOTOTAG_CLASSIFIER_TEMPERATURE",
	ImageDetail:    "PHOTOTAG_CLASSIFIER_IMAGE_DETAIL",
}

var batchEnv = &batch.Env{
	Interval:   "PHOTOTAG_BATCH_INTERVAL",
	Limit:      "PHOTOTAG_BATCH_LIMIT",
	StaleAfter: "PHOTOTAG_BATCH_STALE_AFTER",
	MaxRetries: "PHOTOTAG_BATCH_MAX_RETRIES",
}

// Config is the root configuration for the phototag service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	API             APIConfig         `toml:"api"`
	Classifier      classifier.Config `toml:"classifier"`
	Batch           batch.Config      `toml:"batch"`
	Logging         LoggingConfig     `toml:"logging"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the PHOTOTAG_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPhototagEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Classifier.Merge(&overlay.Classifier)
	c.Batch.Merge(&overlay.Batch)
	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Classifier.Finalize(classifierEnv); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := c.Batch.Finalize(batchEnv); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvPhototagShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvPhototagVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvPhototagEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
