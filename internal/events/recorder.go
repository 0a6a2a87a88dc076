package events

import (
	"context"
	"log/slog"
	"sync"
)

// Discard drops every event.
var Discard Recorder = RecorderFunc(func(context.Context, Event) {})

type multi []Recorder

// Multi fans each event out to every non-nil recorder in order. The event
// timestamp is assigned once so every sink sees the same value.
func Multi(recorders ...Recorder) Recorder {
	out := make(multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Record(ctx context.Context, e Event) {
	e = stamp(e)
	for _, r := range m {
		r.Record(ctx, e)
	}
}

type console struct {
	logger *slog.Logger
}

// Console writes every event kind to logger.
func Console(logger *slog.Logger) Recorder {
	return &console{logger: logger.With("system", "events")}
}

func (c *console) Record(ctx context.Context, e Event) {
	attrs := []any{
		"photo_id", e.PhotoID,
		"kind", e.Kind,
	}
	if e.Tier != "" {
		attrs = append(attrs, "tier", e.Tier)
	}
	if e.Duration > 0 {
		attrs = append(attrs, "duration", e.Duration)
	}
	if e.Confidence != nil {
		attrs = append(attrs, "confidence", *e.Confidence)
	}
	if e.ConfidenceDefaulted {
		attrs = append(attrs, "confidence_defaulted", true)
	}
	if e.Message != "" {
		attrs = append(attrs, "message", e.Message)
	}

	switch e.Kind {
	case Error:
		c.logger.ErrorContext(ctx, "classification event", attrs...)
	case Fallback:
		c.logger.WarnContext(ctx, "classification event", attrs...)
	default:
		c.logger.InfoContext(ctx, "classification event", attrs...)
	}
}

// Capture stores events in memory for inspection.
type Capture struct {
	mu     sync.Mutex
	events []Event
}

func (c *Capture) Record(_ context.Context, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, stamp(e))
}

// Events returns a copy of the recorded events.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (c *Capture) Kinds() []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Kind, len(c.events))
	for i, e := range c.events {
		out[i] = e.Kind
	}
	return out
}
