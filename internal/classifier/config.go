package classifier

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds the chat-completions endpoint and the model for each tier.
type Config struct {
	BaseURL        string   `toml:"base_url"`
	Token          string   `toml:"token"`
	PrimaryModel   string   `toml:"primary_model"`
	SecondaryModel string   `toml:"secondary_model"`
	Timeout        string   `toml:"timeout"`
	MaxTokens      int      `toml:"max_tokens"`
	Temperature    *float64 `toml:"temperature"`
	ImageDetail    string   `toml:"image_detail"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL        string
	Token          string
	PrimaryModel   string
	SecondaryModel string
	Timeout        string
	MaxTokens      string
	Temperature    string
	ImageDetail    string
}

// TimeoutDuration returns the per-call timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Model returns the configured model for a tier.
func (c *Config) Model(t Tier) string {
	if t == Secondary {
		return c.SecondaryModel
	}
	return c.PrimaryModel
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
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.PrimaryModel != "" {
		c.PrimaryModel = overlay.PrimaryModel
	}
	if overlay.SecondaryModel != "" {
		c.SecondaryModel = overlay.SecondaryModel
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Temperature != nil {
		t := *overlay.Temperature
		c.Temperature = &t
	}
	if overlay.ImageDetail != "" {
		c.ImageDetail = overlay.ImageDetail
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.PrimaryModel == "" {
		c.PrimaryModel = "gpt-4o-mini"
	}
	if c.SecondaryModel == "" {
		c.SecondaryModel = "gpt-4o"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 500
	}
	if c.Temperature == nil {
		t := 0.2
		c.Temperature = &t
	}
	if c.ImageDetail == "" {
		c.ImageDetail = "low"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.BaseURL, &c.BaseURL)
	set(env.Token, &c.Token)
	set(env.PrimaryModel, &c.PrimaryModel)
	set(env.SecondaryModel, &c.SecondaryModel)
	set(env.Timeout, &c.Timeout)
	set(env.ImageDetail, &c.ImageDetail)

	if env.MaxTokens != "" {
		if v := os.Getenv(env.MaxTokens); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxTokens = n
			}
		}
	}
	if env.Temperature != "" {
		if v := os.Getenv(env.Temperature); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.Temperature = &f
			}
		}
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if *c.Temperature < 0 || *c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", *c.Temperature)
	}
	switch c.ImageDetail {
	case "low", "high", "auto":
	default:
		return fmt.Errorf("image_detail must be low, high, or auto, got %q", c.ImageDetail)
	}
	return nil
}
