package tags_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/tags"
	"github.com/JaimeStill/phototag/pkg/pagination"
	"github.com/JaimeStill/phototag/pkg/routes"
)

type mockSystem struct {
	listFn     func(ctx context.Context, page pagination.PageRequest, filters tags.Filters) (*pagination.PageResult[tags.Tag], error)
	findFn     func(ctx context.Context, id uuid.UUID) (*tags.Tag, error)
	forPhotoFn func(ctx context.Context, photoID uuid.UUID) ([]tags.Tag, error)
}

func (m *mockSystem) Handler() *tags.Handler { return newTestHandler(m) }

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters tags.Filters) (*pagination.PageResult[tags.Tag], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*tags.Tag, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) ForPhoto(ctx context.Context, photoID uuid.UUID) ([]tags.Tag, error) {
	return m.forPhotoFn(ctx, photoID)
}

func newTestHandler(sys tags.System) *tags.Handler {
	return tags.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *tags.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func TestHandlerList(t *testing.T) {
	var gotFilters tags.Filters
	var gotPage pagination.PageRequest

	sys := &mockSystem{
		listFn: func(ctx context.Context, page pagination.PageRequest, filters tags.Filters) (*pagination.PageResult[tags.Tag], error) {
			gotFilters, gotPage = filters, page
			result := pagination.NewPageResult([]tags.Tag{{Name: "blue", Category: tags.Color, UsageCount: 4}}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("GET", "/tags?category=color&search=bl&page_size=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotFilters.Category == nil || *gotFilters.Category != tags.Color {
		t.Errorf("category filter = %v, want color", gotFilters.Category)
	}
	if gotPage.Search == nil || *gotPage.Search != "bl" || gotPage.PageSize != 5 {
		t.Errorf("page request = %+v", gotPage)
	}

	var body pagination.PageResult[tags.Tag]
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Name != "blue" {
		t.Errorf("body = %+v", body)
	}
}

func TestHandlerListInvalidCategory(t *testing.T) {
	sys := &mockSystem{
		listFn: func(ctx context.Context, page pagination.PageRequest, filters tags.Filters) (*pagination.PageResult[tags.Tag], error) {
			t.Fatal("List should not be called")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("GET", "/tags?category=location", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerFind(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"found", "/tags/" + id.String(), nil, http.StatusOK},
		{"missing", "/tags/" + id.String(), tags.ErrNotFound, http.StatusNotFound},
		{"bad id", "/tags/not-a-uuid", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				findFn: func(ctx context.Context, got uuid.UUID) (*tags.Tag, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &tags.Tag{ID: got, Name: "sky", Category: tags.Content}, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(newTestHandler(sys)).ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
