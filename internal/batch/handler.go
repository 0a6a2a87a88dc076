package batch

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/pkg/handlers"
	"github.com/JaimeStill/phototag/pkg/routes"
)

// Service is the single-photo surface of the orchestrator.
type Service interface {
	Process(ctx context.Context, photoID uuid.UUID) (*Item, error)
	Preview(ctx context.Context, photoID uuid.UUID) (*Item, error)
}

// RunResponse is the body returned by a manual batch trigger.
// Limit is the batch size the stats were produced with. Coalesced reports
// that the request joined a run with the same limit already in flight.
type RunResponse struct {
	Limit     int   `json:"limit"`
	Stats     Stats `json:"stats"`
	Coalesced bool  `json:"coalesced"`
}

// Handler exposes batch and single-photo classification endpoints.
type Handler struct {
	svc     Service
	trigger *Trigger
	logger  *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc Service, trigger *Trigger, logger *slog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		trigger: trigger,
		logger:  logger.With("handler", "batch"),
	}
}

// Routes returns the route groups for batch runs and single-photo
// classification.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/batch",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/run", Handler: h.Run},
				},
			},
			{
				Prefix: "/classifications",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{photoId}", Handler: h.Process},
					{Method: "GET", Pattern: "/{photoId}/preview", Handler: h.Preview},
				},
			},
		},
	}
}

// Run triggers a batch of up to ?limit= photos, or joins the in-flight run
// with the same limit.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidLimit)
			return
		}
		limit = n
	}

	stats, shared, err := h.trigger.Run(r.Context(), limit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, RunResponse{
		Limit:     h.trigger.Limit(limit),
		Stats:     stats,
		Coalesced: shared,
	})
}

// Process classifies and persists one photo.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("photoId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, classifications.ErrInvalidID)
		return
	}

	item, err := h.svc.Process(context.WithoutCancel(r.Context()), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, item)
}

// Preview classifies one photo without persisting anything.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("photoId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, classifications.ErrInvalidID)
		return
	}

	item, err := h.svc.Preview(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, item)
}
