package classifications

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/events"
	"github.com/JaimeStill/phototag/pkg/handlers"
	"github.com/JaimeStill/phototag/pkg/pagination"
	"github.com/JaimeStill/phototag/pkg/routes"
)

const detailEvents = 20

// Detail is a classification with its recent audit trail.
type Detail struct {
	Classification
	Events []events.Entry `json:"events"`
}

// Handler provides read endpoints for classification state and search.
type Handler struct {
	sys        System
	history    History
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler. history may be nil.
func NewHandler(
	sys System,
	history History,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		history:    history,
		logger:     logger.With("handler", "classifications"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for classification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/classifications",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/{photoId}", Handler: h.Find},
		},
	}
}

// Find returns the classification state, tags, and recent events for a photo.
// Photos that were never claimed are reported as pending.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("photoId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	detail := Detail{
		Classification: *c,
		Events:         []events.Entry{},
	}

	if h.history != nil {
		entries, err := h.history.Recent(r.Context(), id, detailEvents)
		if err != nil {
			h.logger.Warn("event history unavailable", "photo_id", id, "error", err)
		} else {
			detail.Events = entries
		}
	}

	handlers.RespondJSON(w, http.StatusOK, detail)
}

// Search returns classifications whose tags contain every term in q.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.Search(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
