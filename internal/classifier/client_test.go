package classifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/classifier"
	"github.com/JaimeStill/phototag/internal/events"
)

// tierReply describes how the fake endpoint answers one model.
type tierReply struct {
	status  int
	content string
	raw     string
	delay   time.Duration
}

type fakeEndpoint struct {
	replies map[string]tierReply

	mu       sync.Mutex
	models   []string
	requests []map[string]any
	auth     []string
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	model, _ := body["model"].(string)

	f.mu.Lock()
	f.models = append(f.models, model)
	f.requests = append(f.requests, body)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	reply, ok := f.replies[model]
	if !ok {
		http.Error(w, "unknown model", http.StatusNotFound)
		return
	}

	if reply.delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(reply.delay):
		}
	}

	if reply.status != 0 && reply.status != http.StatusOK {
		http.Error(w, "upstream says no", reply.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if reply.raw != "" {
		io.WriteString(w, reply.raw)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{
			"message":       map[string]any{"role": "assistant", "content": reply.content},
			"finish_reason": "stop",
		}},
	})
}

func (f *fakeEndpoint) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.models)
}

func newClient(t *testing.T, replies map[string]tierReply) (*classifier.Client, *fakeEndpoint, *events.Capture) {
	t.Helper()

	fake := &fakeEndpoint{replies: replies}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &classifier.Config{
		BaseURL:        srv.URL + "/v1",
		Token:          "test-token",
		PrimaryModel:   "cheap",
		SecondaryModel: "paid",
		Timeout:        "200ms",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	capture := &events.Capture{}
	client := classifier.New(cfg, capture, slog.New(slog.NewTextHandler(io.Discard, nil)), srv.Client())
	return client, fake, capture
}

const invalidReply = `{"content": ["beach"], "people": ["no_people"], "mood": ["calm"], "color": ["blue", "white"], "quality": ["sharp", "clear"], "confidence": 0.5}`

func TestClassifyPrimary(t *testing.T) {
	client, fake, capture := newClient(t, map[string]tierReply{
		"cheap": {content: validReply},
	})

	out, err := client.Classify(context.Background(), uuid.New(), "https://example.com/a.jpg")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if out.Tier != classifier.Primary || out.Model != "cheap" {
		t.Errorf("tier = %s, model = %s", out.Tier, out.Model)
	}
	if out.Result.Confidence != 0.87 {
		t.Errorf("confidence = %v", out.Result.Confidence)
	}
	if got := fake.calls(); !slices.Equal(got, []string{"cheap"}) {
		t.Errorf("calls = %v, want [cheap]", got)
	}
	if got := capture.Kinds(); !slices.Equal(got, []events.Kind{events.Attempt}) {
		t.Errorf("events = %v, want [attempt]", got)
	}
}

func TestClassifyRequestShape(t *testing.T) {
	client, fake, _ := newClient(t, map[string]tierReply{
		"cheap": {content: validReply},
	})

	if _, err := client.Classify(context.Background(), uuid.New(), "data:image/png;base64,AAAA"); err != nil {
		t.Fatalf("classify: %v", err)
	}

	if fake.auth[0] != "Bearer test-token" {
		t.Errorf("authorization = %q", fake.auth[0])
	}

	req := fake.requests[0]
	if rf, _ := req["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("response_format = %v", req["response_format"])
	}

	messages, _ := req["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("messages = %v, want one user message", messages)
	}
	msg, _ := messages[0].(map[string]any)
	if msg["role"] != "user" {
		t.Errorf("role = %v", msg["role"])
	}

	parts, _ := msg["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("content parts = %d, want 2", len(parts))
	}
	text, _ := parts[0].(map[string]any)
	if text["text"] != classifier.Prompt() {
		t.Error("first part is not the fixed prompt")
	}
	image, _ := parts[1].(map[string]any)
	ref, _ := image["image_url"].(map[string]any)
	if ref["url"] != "data:image/png;base64,AAAA" || ref["detail"] != "low" {
		t.Errorf("image part = %v", image)
	}
}

func TestClassifyFallback(t *testing.T) {
	tests := []struct {
		name    string
		primary tierReply
	}{
		{"rate limited", tierReply{status: http.StatusTooManyRequests}},
		{"server error", tierReply{status: http.StatusBadGateway}},
		{"timeout", tierReply{content: validReply, delay: 2 * time.Second}},
		{"malformed content", tierReply{content: "I cannot help with that."}},
		{"empty content", tierReply{content: "  "}},
		{"undecodable body", tierReply{raw: "<html>oops</html>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake, capture := newClient(t, map[string]tierReply{
				"cheap": tt.primary,
				"paid":  {content: "```json\n" + validReply + "\n```"},
			})

			out, err := client.Classify(context.Background(), uuid.New(), "https://example.com/a.jpg")
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if out.Tier != classifier.Secondary {
				t.Errorf("tier = %s, want secondary", out.Tier)
			}
			if got := fake.calls(); !slices.Equal(got, []string{"cheap", "paid"}) {
				t.Errorf("calls = %v", got)
			}

			want := []events.Kind{events.Attempt, events.Fallback, events.Attempt}
			if got := capture.Kinds(); !slices.Equal(got, want) {
				t.Errorf("events = %v, want %v", got, want)
			}
			if fb := capture.Events()[1]; fb.Tier != string(classifier.Primary) || fb.Message == "" {
				t.Errorf("fallback event = %+v", fb)
			}
		})
	}
}

func TestClassifyValidationDoesNotFallBack(t *testing.T) {
	client, fake, capture := newClient(t, map[string]tierReply{
		"cheap": {content: invalidReply},
		"paid":  {content: validReply},
	})

	_, err := client.Classify(context.Background(), uuid.New(), "https://example.com/a.jpg")
	if !errors.Is(err, classifier.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if errors.Is(err, classifier.ErrClassificationFailed) {
		t.Error("validation failure reported as tier failure")
	}

	var terr *classifier.TierError
	if !errors.As(err, &terr) || terr.Tier != classifier.Primary {
		t.Errorf("err = %v, want primary TierError", err)
	}
	if got := fake.calls(); !slices.Equal(got, []string{"cheap"}) {
		t.Errorf("calls = %v, want primary only", got)
	}
	if slices.Contains(capture.Kinds(), events.Fallback) {
		t.Error("fallback recorded for a validation failure")
	}
}

func TestClassifyBothTiersFail(t *testing.T) {
	client, fake, capture := newClient(t, map[string]tierReply{
		"cheap": {status: http.StatusServiceUnavailable},
		"paid":  {status: http.StatusUnauthorized},
	})

	_, err := client.Classify(context.Background(), uuid.New(), "https://example.com/a.jpg")
	if !errors.Is(err, classifier.ErrClassificationFailed) {
		t.Fatalf("err = %v, want ErrClassificationFailed", err)
	}

	var herr *classifier.HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("err = %v, want an HTTPError in the chain", err)
	}
	if !strings.Contains(err.Error(), "secondary tier") || !strings.Contains(err.Error(), "primary tier") {
		t.Errorf("err = %q, want both tiers named", err)
	}
	if got := fake.calls(); len(got) != 2 {
		t.Errorf("calls = %v", got)
	}

	want := []events.Kind{events.Attempt, events.Fallback, events.Attempt}
	if got := capture.Kinds(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestClassifySecondaryValidationFailure(t *testing.T) {
	client, _, _ := newClient(t, map[string]tierReply{
		"cheap": {status: http.StatusTooManyRequests},
		"paid":  {content: invalidReply},
	})

	_, err := client.Classify(context.Background(), uuid.New(), "https://example.com/a.jpg")

	var terr *classifier.TierError
	if !errors.As(err, &terr) || terr.Tier != classifier.Secondary || !errors.Is(err, classifier.ErrValidation) {
		t.Errorf("err = %v, want secondary validation error", err)
	}
}
