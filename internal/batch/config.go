package batch

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// IntervalOff disables the periodic scheduler.
const IntervalOff = "off"

// Config controls batch selection and scheduling.
type Config struct {
	Interval   string `toml:"interval"`
	Limit      int    `toml:"limit"`
	StaleAfter string `toml:"stale_after"`
	MaxRetries int    `toml:"max_retries"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Interval   string
	Limit      string
	StaleAfter string
	MaxRetries string
}

// Scheduled reports whether periodic runs are enabled.
func (c *Config) Scheduled() bool {
	return c.Interval != IntervalOff
}

// IntervalDuration returns the time between scheduled runs. Zero when disabled.
func (c *Config) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// StaleAfterDuration returns how long a processing row is protected from reclaim.
func (c *Config) StaleAfterDuration() time.Duration {
	d, _ := time.ParseDuration(c.StaleAfter)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Interval != "" {
		c.Interval = overlay.Interval
	}
	if overlay.Limit != 0 {
		c.Limit = overlay.Limit
	}
	if overlay.StaleAfter != "" {
		c.StaleAfter = overlay.StaleAfter
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
}

func (c *Config) loadDefaults() {
	if c.Interval == "" {
		c.Interval = "15m"
	}
	if c.Limit == 0 {
		c.Limit = 10
	}
	if c.StaleAfter == "" {
		c.StaleAfter = "5m"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Interval != "" {
		if v := os.Getenv(env.Interval); v != "" {
			c.Interval = v
		}
	}
	if env.StaleAfter != "" {
		if v := os.Getenv(env.StaleAfter); v != "" {
			c.StaleAfter = v
		}
	}
	if env.Limit != "" {
		if v := os.Getenv(env.Limit); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Limit = n
			}
		}
	}
	if env.MaxRetries != "" {
		if v := os.Getenv(env.MaxRetries); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxRetries = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Scheduled() {
		d, err := time.ParseDuration(c.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("interval must be positive or %q, got %s", IntervalOff, c.Interval)
		}
	}
	d, err := time.ParseDuration(c.StaleAfter)
	if err != nil {
		return fmt.Errorf("invalid stale_after: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("stale_after must be positive, got %s", c.StaleAfter)
	}
	if c.Limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", c.Limit)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be positive, got %d", c.MaxRetries)
	}
	return nil
}
