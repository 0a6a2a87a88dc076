package batch

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Runner executes one batch.
type Runner interface {
	RunBatch(ctx context.Context, limit int) (Stats, error)
}

// Trigger coalesces concurrent batch requests for the same limit. A request
// that arrives while a run with that limit is in flight waits for it and
// shares its stats instead of starting another. Runs with different limits
// proceed independently; the atomic claim keeps them from sharing a photo.
type Trigger struct {
	runner       Runner
	defaultLimit int
	group        singleflight.Group
}

// NewTrigger creates a Trigger around runner. Requests with a limit below 1
// use defaultLimit.
func NewTrigger(runner Runner, defaultLimit int) *Trigger {
	return &Trigger{runner: runner, defaultLimit: defaultLimit}
}

// Limit returns the limit a request for requested photos runs with.
func (t *Trigger) Limit(requested int) int {
	if requested < 1 {
		return t.defaultLimit
	}
	return requested
}

// Run starts a batch of Limit(limit) photos or joins the in-flight run with
// the same limit. shared reports whether the stats were delivered to more
// than one caller. The run is detached from ctx cancellation so claimed
// photos always reach a terminal state.
func (t *Trigger) Run(ctx context.Context, limit int) (stats Stats, shared bool, err error) {
	runCtx := context.WithoutCancel(ctx)
	limit = t.Limit(limit)

	v, err, shared := t.group.Do(strconv.Itoa(limit), func() (any, error) {
		return t.runner.RunBatch(runCtx, limit)
	})

	if s, ok := v.(Stats); ok {
		stats = s
	}
	return stats, shared, err
}
