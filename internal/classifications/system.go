package classifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/events"
	"github.com/JaimeStill/phototag/pkg/pagination"
)

// System defines the contract for classification state and search.
type System interface {
	Handler() *Handler

	// Claim atomically moves a photo into processing when the policy allows
	// it. It reports false when another run holds the row or the row is not
	// eligible.
	Claim(ctx context.Context, photoID uuid.UUID, policy ClaimPolicy) (bool, error)

	// Save completes a claimed photo and rewrites its tag associations in one
	// transaction.
	Save(ctx context.Context, photoID uuid.UUID, result Result) error

	// SaveFailure marks a claimed photo failed. Tags are left as they were.
	SaveFailure(ctx context.Context, photoID uuid.UUID, message string) error

	Find(ctx context.Context, photoID uuid.UUID) (*Classification, error)

	Search(
		ctx context.Context,
		q string,
		page pagination.PageRequest,
	) (*pagination.PageResult[Classification], error)
}

// History reads recent audit entries for a photo.
type History interface {
	Recent(ctx context.Context, photoID uuid.UUID, limit int) ([]events.Entry, error)
}
