// Package classifier requests structured tags for an image from an
// OpenAI-compatible chat-completions endpoint. Each request goes to the
// primary model tier first and is re-issued against the secondary tier when
// the primary call fails for any reason. Replies that parse but break the
// tagging rules are rejected without falling back.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/internal/events"
	"github.com/JaimeStill/phototag/pkg/formatting"
)

// Tier names a model tier.
type Tier string

const (
	Primary   Tier = "primary"
	Secondary Tier = "secondary"
)

var tiers = []Tier{Primary, Secondary}

const maxErrorBody = 4 << 10

// Outcome is a validated classification and the tier that produced it.
type Outcome struct {
	Result   classifications.Result `json:"result"`
	Tier     Tier                   `json:"tier"`
	Model    string                 `json:"model"`
	Duration time.Duration          `json:"duration"`
}

// Client calls the classification endpoint.
type Client struct {
	cfg      *Config
	http     *http.Client
	timeout  time.Duration
	recorder events.Recorder
	logger   *slog.Logger
}

// New creates a Client. A nil httpClient uses a default client; the per-call
// timeout from cfg is applied through the request context either way.
func New(cfg *Config, recorder events.Recorder, logger *slog.Logger, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if recorder == nil {
		recorder = events.Discard
	}
	return &Client{
		cfg:      cfg,
		http:     httpClient,
		timeout:  cfg.TimeoutDuration(),
		recorder: recorder,
		logger:   logger.With("system", "classifier"),
	}
}

// Classify tags the image at imageURL. imageURL must be an http(s) or data URI.
// Attempt and fallback events are recorded for photoID.
func (c *Client) Classify(ctx context.Context, photoID uuid.UUID, imageURL string) (*Outcome, error) {
	var failures []error

	for _, tier := range tiers {
		c.recorder.Record(ctx, events.Event{PhotoID: photoID, Kind: events.Attempt, Tier: string(tier)})

		start := time.Now()
		raw, err := c.call(ctx, tier, imageURL)
		elapsed := time.Since(start)

		if err != nil {
			failures = append(failures, &TierError{Tier: tier, Err: err})

			if tier == Primary {
				c.recorder.Record(ctx, events.Event{
					PhotoID:  photoID,
					Kind:     events.Fallback,
					Tier:     string(tier),
					Message:  err.Error(),
					Duration: elapsed,
				})
				continue
			}

			return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, errors.Join(failures...))
		}

		result, err := Validate(raw)
		if err != nil {
			return nil, &TierError{Tier: tier, Err: err}
		}

		return &Outcome{
			Result:   result,
			Tier:     tier,
			Model:    c.cfg.Model(tier),
			Duration: elapsed,
		}, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, errors.Join(failures...))
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) call(ctx context.Context, tier Tier, imageURL string) (map[string]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model(tier),
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: Prompt()},
				{Type: "image_url", ImageURL: &imageRef{URL: imageURL, Detail: c.cfg.ImageDetail}},
			},
		}},
		MaxTokens:      c.cfg.MaxTokens,
		Temperature:    c.cfg.Temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrMalformedReply, err)
	}

	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyReply
	}

	raw, err := formatting.Parse[map[string]json.RawMessage](decoded.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}

	c.logger.Debug("classifier replied",
		"tier", tier,
		"model", c.cfg.Model(tier),
		"finish_reason", decoded.Choices[0].FinishReason,
	)

	return raw, nil
}
