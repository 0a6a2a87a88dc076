// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/phototag/internal/batch"
	"github.com/JaimeStill/phototag/internal/config"
	"github.com/JaimeStill/phototag/internal/infrastructure"
	"github.com/JaimeStill/phototag/pkg/middleware"
	"github.com/JaimeStill/phototag/pkg/module"
)

// API is the mounted HTTP module and the batch scheduler sharing its domain.
type API struct {
	Module    *module.Module
	Domain    *Domain
	Scheduler *batch.Scheduler
}

// New creates the API module with all domain handlers and middleware.
func New(cfg *config.Config, infra *infrastructure.Infrastructure) (*API, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Logger),
		middleware.Recover(runtime.Logger),
	)

	return &API{
		Module:    m,
		Domain:    domain,
		Scheduler: domain.Scheduler(runtime),
	}, nil
}
