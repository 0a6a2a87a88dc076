package api

import (
	"net/http"

	"github.com/JaimeStill/phototag/internal/batch"
	"github.com/JaimeStill/phototag/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	routes.Register(
		mux,
		domain.Photos.Handler().Routes(),
		domain.Classifications.Handler().Routes(),
		domain.Tags.Handler().Routes(),
		batch.NewHandler(domain.Orchestrator, domain.Trigger, runtime.Logger).Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger).routes(),
	)
}
