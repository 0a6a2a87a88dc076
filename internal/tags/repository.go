package tags

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/pkg/pagination"
	"github.com/JaimeStill/phototag/pkg/query"
	"github.com/JaimeStill/phototag/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a tag repository implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "tags"),
		pagination: pagination,
	}
}

// NewWriter returns the transactional tag writer used by classification persistence.
func NewWriter() Writer {
	return writer{}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Tag], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereContains("Name", page.Search)

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tags: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanTag)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Tag, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	t, err := repository.QueryOne(ctx, r.db, q, args, scanTag)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) ForPhoto(ctx context.Context, photoID uuid.UUID) ([]Tag, error) {
	return ForPhoto(ctx, r.db, photoID)
}

// ForPhoto returns the tags linked to a photo in category order, then by name.
func ForPhoto(ctx context.Context, q repository.Querier, photoID uuid.UUID) ([]Tag, error) {
	const forPhotoQ = `
		SELECT t.id, t.name, t.category, t.usage_count, t.created_at
		FROM tags t
		JOIN photo_tags pt ON pt.tag_id = t.id
		WHERE pt.photo_id = $1
		ORDER BY array_position(ARRAY['content', 'people', 'mood', 'color', 'quality'], t.category), t.name`

	items, err := repository.QueryMany(ctx, q, forPhotoQ, []any{photoID}, scanTag)
	if err != nil {
		return nil, fmt.Errorf("query photo tags: %w", err)
	}
	return items, nil
}

type writer struct{}

// Release unlinks every tag from the photo and decrements each unlinked
// tag's usage count in the same statement.
func (writer) Release(ctx context.Context, tx *sql.Tx, photoID uuid.UUID) error {
	const releaseQ = `
		WITH removed AS (
			DELETE FROM photo_tags WHERE photo_id = $1 RETURNING tag_id
		)
		UPDATE tags t
		SET usage_count = t.usage_count - 1
		FROM removed r
		WHERE t.id = r.tag_id`

	if _, err := tx.ExecContext(ctx, releaseQ, photoID); err != nil {
		return fmt.Errorf("release tags for %s: %w", photoID, err)
	}
	return nil
}

// Upsert inserts the tag with a usage count of one, or increments the count of
// the existing tag. The category recorded on first use is kept.
func (writer) Upsert(ctx context.Context, tx *sql.Tx, name string, category Category) (uuid.UUID, error) {
	const upsertQ = `
		INSERT INTO tags (name, category, usage_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (name) DO UPDATE SET usage_count = tags.usage_count + 1
		RETURNING id`

	var id uuid.UUID
	if err := tx.QueryRowContext(ctx, upsertQ, name, string(category)).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("upsert tag %q: %w", name, err)
	}
	return id, nil
}

func (writer) Link(ctx context.Context, tx *sql.Tx, photoID, tagID uuid.UUID) error {
	const linkQ = `INSERT INTO photo_tags (photo_id, tag_id) VALUES ($1, $2)`

	if err := repository.ExecExpectOne(ctx, tx, linkQ, photoID, tagID); err != nil {
		return fmt.Errorf("link tag %s to %s: %w", tagID, photoID, err)
	}
	return nil
}
