// Package batch selects unclassified photos, claims them, and drives each one
// through classification and persistence. Items are processed sequentially;
// the atomic claim is what keeps overlapping runs from sharing a photo.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/internal/classifier"
	"github.com/JaimeStill/phototag/internal/events"
	"github.com/JaimeStill/phototag/internal/photos"
)

// Photos reads the catalog.
type Photos interface {
	SelectEligible(ctx context.Context, limit int, policy classifications.ClaimPolicy) ([]photos.Photo, error)
	Find(ctx context.Context, id uuid.UUID) (*photos.Photo, error)
}

// Store owns classification state transitions.
type Store interface {
	Claim(ctx context.Context, photoID uuid.UUID, policy classifications.ClaimPolicy) (bool, error)
	Save(ctx context.Context, photoID uuid.UUID, result classifications.Result) error
	SaveFailure(ctx context.Context, photoID uuid.UUID, message string) error
}

// Classifier produces a validated result for an image URL.
type Classifier interface {
	Classify(ctx context.Context, photoID uuid.UUID, imageURL string) (*classifier.Outcome, error)
}

// Resolver turns a photo locator into an image URL.
type Resolver interface {
	Resolve(ctx context.Context, locator string) (string, error)
}

// Observer receives finished batch statistics.
type Observer interface {
	ObserveBatch(processed, successful, failed, skipped int, aborted bool)
}

// Stats counts the outcome of one batch run. Processed is the number of
// claimed items; Skipped counts selected photos whose claim was lost to a
// concurrent run.
type Stats struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Item is the outcome of classifying a single photo.
type Item struct {
	PhotoID        uuid.UUID               `json:"photo_id"`
	Status         classifications.Status  `json:"status"`
	Tier           classifier.Tier         `json:"tier"`
	Model          string                  `json:"model"`
	DurationMS     int64                   `json:"duration_ms"`
	Confidence     float64                 `json:"confidence"`
	Defaulted      bool                    `json:"confidence_defaulted,omitempty"`
	Tags           []classifications.Entry `json:"tags"`
	SearchableText string                  `json:"searchable_text"`
}

func newItem(photoID uuid.UUID, status classifications.Status, o *classifier.Outcome) *Item {
	return &Item{
		PhotoID:        photoID,
		Status:         status,
		Tier:           o.Tier,
		Model:          o.Model,
		DurationMS:     o.Duration.Milliseconds(),
		Confidence:     o.Result.Confidence,
		Defaulted:      o.Result.ConfidenceDefaulted,
		Tags:           o.Result.Tags(),
		SearchableText: o.Result.SearchableText(),
	}
}

// Orchestrator runs classification batches.
type Orchestrator struct {
	photos     Photos
	store      Store
	classifier Classifier
	resolver   Resolver
	recorder   events.Recorder
	observer   Observer
	cfg        Config
	logger     *slog.Logger
}

// Deps collects the collaborators of an Orchestrator. Recorder and Observer
// are optional.
type Deps struct {
	Photos     Photos
	Store      Store
	Classifier Classifier
	Resolver   Resolver
	Recorder   events.Recorder
	Observer   Observer
}

// New creates an Orchestrator. cfg must be finalized.
func New(deps Deps, cfg Config, logger *slog.Logger) *Orchestrator {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = events.Discard
	}
	return &Orchestrator{
		photos:     deps.Photos,
		store:      deps.Store,
		classifier: deps.Classifier,
		resolver:   deps.Resolver,
		recorder:   recorder,
		observer:   deps.Observer,
		cfg:        cfg,
		logger:     logger.With("system", "batch"),
	}
}

// Config returns the batch configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// RunBatch claims and classifies up to limit eligible photos. A limit below 1
// uses the configured default. Only a failed selection aborts the run; every
// per-item failure is recorded against that photo and counted.
func (o *Orchestrator) RunBatch(ctx context.Context, limit int) (Stats, error) {
	if limit < 1 {
		limit = o.cfg.Limit
	}

	var stats Stats
	start := time.Now()
	policy := classifications.ClaimBatch(o.cfg.StaleAfterDuration(), o.cfg.MaxRetries)

	selected, err := o.photos.SelectEligible(ctx, limit, policy)
	if err != nil {
		o.observe(stats, true)
		o.logger.Error("batch selection failed", "error", err)
		return stats, fmt.Errorf("select batch: %w", err)
	}

	o.logger.Info("batch started", "selected", len(selected), "limit", limit)

	for _, p := range selected {
		claimed, err := o.store.Claim(ctx, p.ID, policy)
		if err != nil {
			stats.Processed++
			stats.Failed++
			o.recordError(ctx, p.ID, fmt.Errorf("claim: %w", err))
			continue
		}
		if !claimed {
			stats.Skipped++
			o.logger.Debug("claim lost", "photo_id", p.ID)
			continue
		}

		stats.Processed++
		if _, err := o.settle(ctx, p); err != nil {
			stats.Failed++
			continue
		}
		stats.Successful++
	}

	o.observe(stats, false)
	o.logger.Info(
		"batch completed",
		"processed", stats.Processed,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"duration", time.Since(start),
	)

	return stats, nil
}

// Process claims and classifies one photo regardless of its retry count.
// A photo held by a live attempt returns ErrInProgress.
func (o *Orchestrator) Process(ctx context.Context, photoID uuid.UUID) (*Item, error) {
	p, err := o.photos.Find(ctx, photoID)
	if err != nil {
		return nil, err
	}

	claimed, err := o.store.Claim(ctx, p.ID, classifications.ClaimManual(o.cfg.StaleAfterDuration()))
	if err != nil {
		return nil, fmt.Errorf("claim photo %s: %w", p.ID, err)
	}
	if !claimed {
		return nil, fmt.Errorf("%w: %s", ErrInProgress, p.ID)
	}

	outcome, err := o.settle(ctx, *p)
	if err != nil {
		return nil, err
	}

	return newItem(p.ID, classifications.Completed, outcome), nil
}

// Preview classifies one photo without claiming it or persisting the result.
func (o *Orchestrator) Preview(ctx context.Context, photoID uuid.UUID) (*Item, error) {
	p, err := o.photos.Find(ctx, photoID)
	if err != nil {
		return nil, err
	}

	outcome, err := o.classify(ctx, *p)
	if err != nil {
		return nil, err
	}

	return newItem(p.ID, p.Status, outcome), nil
}

// settle runs one claimed photo to a terminal state and records the outcome.
func (o *Orchestrator) settle(ctx context.Context, p photos.Photo) (*classifier.Outcome, error) {
	outcome, err := o.process(ctx, p)
	if err != nil {
		if ferr := o.store.SaveFailure(ctx, p.ID, err.Error()); ferr != nil {
			o.logger.Error("failure state not saved", "photo_id", p.ID, "error", ferr)
		}
		o.recordError(ctx, p.ID, err)
		return nil, err
	}

	conf := outcome.Result.Confidence
	o.recorder.Record(ctx, events.Event{
		PhotoID:             p.ID,
		Kind:                events.Success,
		Tier:                string(outcome.Tier),
		Duration:            outcome.Duration,
		Confidence:          &conf,
		ConfidenceDefaulted: outcome.Result.ConfidenceDefaulted,
	})

	return outcome, nil
}

func (o *Orchestrator) process(ctx context.Context, p photos.Photo) (_ *classifier.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("item processing panicked", "photo_id", p.ID, "panic", r)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	outcome, err := o.classify(ctx, p)
	if err != nil {
		return nil, err
	}

	if err := o.store.Save(ctx, p.ID, outcome.Result); err != nil {
		return nil, fmt.Errorf("save classification: %w", err)
	}

	return outcome, nil
}

func (o *Orchestrator) classify(ctx context.Context, p photos.Photo) (*classifier.Outcome, error) {
	locator, err := p.Locator()
	if err != nil {
		return nil, err
	}

	imageURL, err := o.resolver.Resolve(ctx, locator)
	if err != nil {
		return nil, err
	}

	return o.classifier.Classify(ctx, p.ID, imageURL)
}

func (o *Orchestrator) recordError(ctx context.Context, photoID uuid.UUID, err error) {
	o.recorder.Record(ctx, events.Event{
		PhotoID: photoID,
		Kind:    events.Error,
		Tier:    tierOf(err),
		Message: err.Error(),
	})
}

func (o *Orchestrator) observe(s Stats, aborted bool) {
	if o.observer == nil {
		return
	}
	o.observer.ObserveBatch(s.Processed, s.Successful, s.Failed, s.Skipped, aborted)
}

// tierOf names the tier whose failure ended the attempt, if any.
func tierOf(err error) string {
	if errors.Is(err, classifier.ErrClassificationFailed) {
		return string(classifier.Secondary)
	}
	var te *classifier.TierError
	if errors.As(err, &te) {
		return string(te.Tier)
	}
	return ""
}
