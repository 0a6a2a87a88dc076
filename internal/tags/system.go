package tags

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/pkg/pagination"
)

// System defines the read contract for the tag dictionary.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Tag], error)

	Find(ctx context.Context, id uuid.UUID) (*Tag, error)
	ForPhoto(ctx context.Context, photoID uuid.UUID) ([]Tag, error)
}

// Writer performs the tag rewrite steps inside a caller-owned transaction.
type Writer interface {
	Release(ctx context.Context, tx *sql.Tx, photoID uuid.UUID) error
	Upsert(ctx context.Context, tx *sql.Tx, name string, category Category) (uuid.UUID, error)
	Link(ctx context.Context, tx *sql.Tx, photoID, tagID uuid.UUID) error
}
