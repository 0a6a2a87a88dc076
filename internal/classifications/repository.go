package classifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/tags"
	"github.com/JaimeStill/phototag/pkg/pagination"
	"github.com/JaimeStill/phototag/pkg/query"
	"github.com/JaimeStill/phototag/pkg/repository"
)

const maxErrorMessage = 2000

type repo struct {
	db         *sql.DB
	tags       tags.Writer
	history    History
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a classification repository implementing System. history may
// be nil, in which case detail responses carry no audit entries.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
	history History,
) System {
	return &repo{
		db:         db,
		tags:       tags.NewWriter(),
		history:    history,
		logger:     logger.With("system", "classifications"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.history, r.logger, r.pagination)
}

func (r *repo) Claim(ctx context.Context, photoID uuid.UUID, policy ClaimPolicy) (bool, error) {
	eligible, eligibleArgs := policy.Template()

	claimQ := fmt.Sprintf(`
		INSERT INTO classifications AS c (photo_id, status, retry_count, last_attempt_at)
		VALUES ($1, 'processing', 1, NOW())
		ON CONFLICT (photo_id) DO UPDATE
		SET status = 'processing',
			retry_count = c.retry_count + 1,
			last_attempt_at = NOW()
		WHERE %s
		RETURNING c.retry_count`, numbered(eligible, 2))

	args := append([]any{photoID}, eligibleArgs...)

	var attempt int
	err := r.db.QueryRowContext(ctx, claimQ, args...).Scan(&attempt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", photoID, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}

	r.logger.Debug("photo claimed", "photo_id", photoID, "attempt", attempt)
	return true, nil
}

func (r *repo) Save(ctx context.Context, photoID uuid.UUID, result Result) error {
	entries := result.Tags()

	// Lock tags in name order so concurrent rewrites sharing tags do not deadlock.
	ordered := slices.Clone(entries)
	slices.SortFunc(ordered, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		const completeQ = `
			UPDATE classifications
			SET status = 'completed',
				confidence = $2,
				completed_at = NOW(),
				searchable_text = $3,
				error_message = NULL
			WHERE photo_id = $1`

		err := repository.ExecExpectOne(ctx, tx, completeQ, photoID, result.Confidence, result.SearchableText())
		if errors.Is(err, sql.ErrNoRows) {
			return struct{}{}, ErrNotClaimed
		}
		if err != nil {
			return struct{}{}, err
		}

		if err := r.tags.Release(ctx, tx, photoID); err != nil {
			return struct{}{}, err
		}

		for _, e := range ordered {
			id, err := r.tags.Upsert(ctx, tx, e.Name, e.Category)
			if err != nil {
				return struct{}{}, err
			}
			if err := r.tags.Link(ctx, tx, photoID, id); err != nil {
				return struct{}{}, err
			}
		}

		return struct{}{}, nil
	})

	if err != nil {
		return fmt.Errorf("save classification %s: %w", photoID, repository.MapError(err, ErrNotFound, ErrDuplicate))
	}

	r.logger.Info("classification saved", "photo_id", photoID, "tags", len(entries))
	return nil
}

func (r *repo) SaveFailure(ctx context.Context, photoID uuid.UUID, message string) error {
	const failQ = `
		UPDATE classifications
		SET status = 'failed',
			error_message = $2
		WHERE photo_id = $1`

	if len(message) > maxErrorMessage {
		message = strings.ToValidUTF8(message[:maxErrorMessage], "")
	}

	err := repository.ExecExpectOne(ctx, r.db, failQ, photoID, message)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("record failure %s: %w", photoID, ErrNotClaimed)
	}
	if err != nil {
		return fmt.Errorf("record failure %s: %w", photoID, err)
	}
	return nil
}

func (r *repo) Find(ctx context.Context, photoID uuid.UUID) (*Classification, error) {
	q, args := query.NewBuilder(photoProjection).BuildSingle("PhotoID", photoID)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	linked, err := tags.ForPhoto(ctx, r.db, photoID)
	if err != nil {
		return nil, err
	}
	c.Tags = linked

	return &c, nil
}

func (r *repo) Search(
	ctx context.Context,
	q string,
	page pagination.PageRequest,
) (*pagination.PageResult[Classification], error) {
	tsq, err := tsQuery(q)
	if err != nil {
		return nil, err
	}

	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(searchProjection, searchSort...).
		WhereRaw("s.document @@ $%d::tsquery", tsq)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count search results: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query search results: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}
