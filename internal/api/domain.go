package api

import (
	"github.com/JaimeStill/phototag/internal/batch"
	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/internal/classifier"
	"github.com/JaimeStill/phototag/internal/events"
	"github.com/JaimeStill/phototag/internal/photos"
	"github.com/JaimeStill/phototag/internal/tags"
)

// Domain holds all domain systems that comprise the API and the batch
// pipeline.
type Domain struct {
	Photos          photos.System
	Classifications classifications.System
	Tags            tags.System
	Events          *events.Store
	Classifier      *classifier.Client
	Orchestrator    *batch.Orchestrator
	Trigger         *batch.Trigger
}

// NewDomain creates all domain systems from the API runtime. Pipeline
// events fan out to the console, the classification_logs table, and the
// pipeline metrics.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	eventStore := events.NewStore(db, runtime.Logger)

	recorder := events.Multi(
		events.Console(runtime.Logger),
		eventStore,
		runtime.Metrics,
	)

	photosSystem := photos.New(db, runtime.Logger, runtime.Pagination)

	classificationsSystem := classifications.New(
		db,
		runtime.Logger,
		runtime.Pagination,
		eventStore,
	)

	tagsSystem := tags.New(db, runtime.Logger, runtime.Pagination)

	client := classifier.New(&runtime.Classifier, recorder, runtime.Logger, nil)

	orchestrator := batch.New(
		batch.Deps{
			Photos:     photosSystem,
			Store:      classificationsSystem,
			Classifier: client,
			Resolver:   photos.NewResolver(runtime.Storage, runtime.Logger),
			Recorder:   recorder,
			Observer:   runtime.Metrics,
		},
		runtime.Batch,
		runtime.Logger,
	)

	return &Domain{
		Photos:          photosSystem,
		Classifications: classificationsSystem,
		Tags:            tagsSystem,
		Events:          eventStore,
		Classifier:      client,
		Orchestrator:    orchestrator,
		Trigger:         batch.NewTrigger(orchestrator, runtime.Batch.Limit),
	}
}

// Scheduler returns the periodic batch worker for the configured interval.
func (d *Domain) Scheduler(runtime *Runtime) *batch.Scheduler {
	return batch.NewScheduler(
		d.Trigger,
		runtime.Batch.IntervalDuration(),
		runtime.Batch.Limit,
		runtime.Logger,
	)
}
