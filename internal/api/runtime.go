package api

import (
	"github.com/JaimeStill/phototag/internal/batch"
	"github.com/JaimeStill/phototag/internal/classifier"
	"github.com/JaimeStill/phototag/internal/config"
	"github.com/JaimeStill/phototag/internal/infrastructure"
	"github.com/JaimeStill/phototag/pkg/pagination"
)

// Runtime extends Infrastructure with API and pipeline configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Classifier classifier.Config
	Batch      batch.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Metrics:   infra.Metrics,
		},
		Pagination: cfg.API.Pagination,
		Classifier: cfg.Classifier,
		Batch:      cfg.Batch,
	}
}
