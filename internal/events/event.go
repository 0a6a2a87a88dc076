// Package events records classification pipeline events. A Recorder is passed
// explicitly to the components that emit events; sinks fan the same event out
// to the console, the classification_logs table, and metrics.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what happened during a classification attempt.
type Kind string

const (
	Attempt  Kind = "attempt"
	Success  Kind = "success"
	Error    Kind = "error"
	Fallback Kind = "fallback"
)

// Durable reports whether events of this kind are written to the audit log.
// Attempts are console-only.
func (k Kind) Durable() bool {
	return k == Success || k == Error || k == Fallback
}

// Event is a single pipeline occurrence for one photo.
type Event struct {
	PhotoID             uuid.UUID
	Kind                Kind
	Tier                string
	Message             string
	Duration            time.Duration
	Confidence          *float64
	ConfidenceDefaulted bool
	Timestamp           time.Time
}

// Recorder accepts pipeline events. Implementations must not fail the caller:
// sink errors are handled inside the recorder.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, e Event)

func (f RecorderFunc) Record(ctx context.Context, e Event) {
	f(ctx, e)
}

func stamp(e Event) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}
