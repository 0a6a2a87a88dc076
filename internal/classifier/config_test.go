package classifier_test

import (
	"testing"
	"time"

	"github.com/JaimeStill/phototag/internal/classifier"
)

func TestConfigDefaults(t *testing.T) {
	var c classifier.Config
	if err := c.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if c.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("base_url = %q", c.BaseURL)
	}
	if c.Model(classifier.Primary) != "gpt-4o-mini" || c.Model(classifier.Secondary) != "gpt-4o" {
		t.Errorf("models = %q, %q", c.PrimaryModel, c.SecondaryModel)
	}
	if c.TimeoutDuration() != 60*time.Second {
		t.Errorf("timeout = %v", c.TimeoutDuration())
	}
	if c.Temperature == nil || *c.Temperature != 0.2 {
		t.Errorf("temperature = %v", c.Temperature)
	}
	if c.ImageDetail != "low" || c.MaxTokens != 500 {
		t.Errorf("detail = %q, max_tokens = %d", c.ImageDetail, c.MaxTokens)
	}
}

func TestConfigEnv(t *testing.T) {
	env := &classifier.Env{
		BaseURL:        "TEST_CLASSIFIER_BASE_URL",
		Token:          "TEST_CLASSIFIER_TOKEN",
		PrimaryModel:   "TEST_CLASSIFIER_PRIMARY_MODEL",
		SecondaryModel: "TEST_CLASSIFIER_SECONDARY_MODEL",
		Timeout:        "TEST_CLASSIFIER_TIMEOUT",
		MaxTokens:      "TEST_CLASSIFIER_MAX_TOKENS",
		Temperature:    "TEST_CLASSIFIER_TEMPERATURE",
		ImageDetail:    "TEST_CLASSIFIER_IMAGE_DETAIL",
	}

	t.Setenv("TEST_CLASSIFIER_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("TEST_CLASSIFIER_TOKEN", "secret")
	t.Setenv("TEST_CLASSIFIER_PRIMARY_MODEL", "llava")
	t.Setenv("TEST_CLASSIFIER_SECONDARY_MODEL", "gpt-4.1")
	t.Setenv("TEST_CLASSIFIER_TIMEOUT", "15s")
	t.Setenv("TEST_CLASSIFIER_MAX_TOKENS", "300")
	t.Setenv("TEST_CLASSIFIER_TEMPERATURE", "0")
	t.Setenv("TEST_CLASSIFIER_IMAGE_DETAIL", "high")

	var c classifier.Config
	if err := c.Finalize(env); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if c.BaseURL != "http://localhost:11434/v1" || c.Token != "secret" {
		t.Errorf("endpoint = %q, token = %q", c.BaseURL, c.Token)
	}
	if c.PrimaryModel != "llava" || c.SecondaryModel != "gpt-4.1" {
		t.Errorf("models = %q, %q", c.PrimaryModel, c.SecondaryModel)
	}
	if c.TimeoutDuration() != 15*time.Second || c.MaxTokens != 300 || c.ImageDetail != "high" {
		t.Errorf("timeout = %v, max_tokens = %d, detail = %q", c.TimeoutDuration(), c.MaxTokens, c.ImageDetail)
	}
	if c.Temperature == nil || *c.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", c.Temperature)
	}
}

func TestConfigValidate(t *testing.T) {
	hot := 3.0

	tests := []struct {
		name string
		cfg  classifier.Config
	}{
		{"bad scheme", classifier.Config{BaseURL: "ftp://example.com"}},
		{"no host", classifier.Config{BaseURL: "https://"}},
		{"bad timeout", classifier.Config{Timeout: "soon"}},
		{"negative timeout", classifier.Config{Timeout: "-1s"}},
		{"negative tokens", classifier.Config{MaxTokens: -5}},
		{"temperature range", classifier.Config{Temperature: &hot}},
		{"detail", classifier.Config{ImageDetail: "medium"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	temp := 0.7
	base := classifier.Config{PrimaryModel: "a", Timeout: "30s"}
	base.Merge(&classifier.Config{PrimaryModel: "b", Temperature: &temp})

	if base.PrimaryModel != "b" || base.Timeout != "30s" {
		t.Errorf("merged = %+v", base)
	}
	if base.Temperature == nil || *base.Temperature != 0.7 {
		t.Errorf("temperature = %v", base.Temperature)
	}

	temp = 0.1
	if *base.Temperature != 0.7 {
		t.Error("merge aliased the overlay temperature")
	}
}
