package photos

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/pkg/pagination"
	"github.com/JaimeStill/phototag/pkg/query"
	"github.com/JaimeStill/phototag/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a photo repository implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "photos"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) SelectEligible(ctx context.Context, limit int, policy classifications.ClaimPolicy) ([]Photo, error) {
	eligible, args := policy.Template()

	q, qargs := query.
		NewBuilder(projection, newestFirst...).
		WhereRaw("(c.photo_id IS NULL OR "+eligible+")", args...).
		BuildLimit(limit)

	items, err := repository.QueryMany(ctx, r.db, q, qargs, scanPhoto)
	if err != nil {
		return nil, fmt.Errorf("select eligible photos: %w", err)
	}

	r.logger.Debug("eligible photos selected", "count", len(items), "limit", limit)
	return items, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Photo], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, newestFirst...)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count photos: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPhoto)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Photo, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPhoto)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}
