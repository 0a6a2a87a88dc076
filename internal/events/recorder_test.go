package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/events"
)

func TestDurable(t *testing.T) {
	tests := []struct {
		kind events.Kind
		want bool
	}{
		{events.Attempt, false},
		{events.Success, true},
		{events.Error, true},
		{events.Fallback, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.Durable(); got != tt.want {
				t.Errorf("Durable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := events.Console(logger)

	conf := 0.75
	id := uuid.New()

	tests := []struct {
		name      string
		event     events.Event
		wantLevel string
		wantKeys  []string
	}{
		{
			name:      "attempt",
			event:     events.Event{PhotoID: id, Kind: events.Attempt, Tier: "primary"},
			wantLevel: "INFO",
			wantKeys:  []string{"photo_id", "kind", "tier"},
		},
		{
			name:      "success",
			event:     events.Event{PhotoID: id, Kind: events.Success, Tier: "secondary", Duration: time.Second, Confidence: &conf, ConfidenceDefaulted: true},
			wantLevel: "INFO",
			wantKeys:  []string{"duration", "confidence", "confidence_defaulted"},
		},
		{
			name:      "fallback",
			event:     events.Event{PhotoID: id, Kind: events.Fallback, Tier: "primary", Message: "status 429"},
			wantLevel: "WARN",
			wantKeys:  []string{"message"},
		},
		{
			name:      "error",
			event:     events.Event{PhotoID: id, Kind: events.Error, Message: "both tiers failed"},
			wantLevel: "ERROR",
			wantKeys:  []string{"message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			rec.Record(context.Background(), tt.event)

			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if line["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", line["level"], tt.wantLevel)
			}
			if line["system"] != "events" {
				t.Errorf("system = %v, want events", line["system"])
			}
			for _, k := range tt.wantKeys {
				if _, ok := line[k]; !ok {
					t.Errorf("missing %q in %v", k, line)
				}
			}
		})
	}
}

func TestMultiStampsOnce(t *testing.T) {
	var a, b events.Capture
	rec := events.Multi(&a, nil, &b, events.Discard)

	rec.Record(context.Background(), events.Event{PhotoID: uuid.New(), Kind: events.Attempt})

	ea, eb := a.Events(), b.Events()
	if len(ea) != 1 || len(eb) != 1 {
		t.Fatalf("captured %d and %d events, want 1 each", len(ea), len(eb))
	}
	if ea[0].Timestamp.IsZero() || !ea[0].Timestamp.Equal(eb[0].Timestamp) {
		t.Errorf("timestamps = %v, %v; want equal and set", ea[0].Timestamp, eb[0].Timestamp)
	}
}

func TestCaptureKinds(t *testing.T) {
	var c events.Capture
	id := uuid.New()

	for _, k := range []events.Kind{events.Attempt, events.Fallback, events.Success} {
		c.Record(context.Background(), events.Event{PhotoID: id, Kind: k})
	}

	want := []events.Kind{events.Attempt, events.Fallback, events.Success}
	if got := c.Kinds(); !slices.Equal(got, want) {
		t.Errorf("Kinds() = %v, want %v", got, want)
	}

	given := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c.Record(context.Background(), events.Event{Kind: events.Error, Timestamp: given})
	if got := c.Events()[3].Timestamp; !got.Equal(given) {
		t.Errorf("explicit timestamp overwritten: %v", got)
	}
}

func TestRecorderFunc(t *testing.T) {
	var got events.Kind
	rec := events.RecorderFunc(func(_ context.Context, e events.Event) { got = e.Kind })
	rec.Record(context.Background(), events.Event{Kind: events.Success})
	if got != events.Success {
		t.Errorf("got %q, want success", got)
	}
}
