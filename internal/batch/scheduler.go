package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/phototag/pkg/lifecycle"
)

// Scheduler runs a batch on a fixed interval as a lifecycle worker.
type Scheduler struct {
	trigger  *Trigger
	interval time.Duration
	limit    int
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler. A zero interval disables it.
func NewScheduler(trigger *Trigger, interval time.Duration, limit int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		trigger:  trigger,
		interval: interval,
		limit:    limit,
		logger:   logger.With("system", "scheduler"),
	}
}

// Start registers the periodic worker with lc. Shutdown stops new ticks; a
// run already in flight is allowed to finish.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) error {
	if s.interval <= 0 {
		s.logger.Info("batch scheduler disabled")
		return nil
	}

	s.logger.Info("starting batch scheduler", "interval", s.interval, "limit", s.limit)

	lc.Go(func(ctx context.Context) {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("batch scheduler stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	})

	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	stats, shared, err := s.trigger.Run(ctx, s.limit)
	if err != nil {
		s.logger.Error("scheduled batch failed", "error", err)
		return
	}
	if shared {
		s.logger.Info("scheduled batch joined a run in flight", "processed", stats.Processed)
	}
}
