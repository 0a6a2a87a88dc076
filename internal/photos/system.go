package photos

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/phototag/internal/classifications"
	"github.com/JaimeStill/phototag/pkg/pagination"
)

// System defines the read contract for the photo catalog.
type System interface {
	Handler() *Handler

	// SelectEligible returns up to limit photos that are unclassified or
	// claimable under policy, newest first. A limit below 1 returns every
	// eligible photo.
	SelectEligible(ctx context.Context, limit int, policy classifications.ClaimPolicy) ([]Photo, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Photo], error)

	Find(ctx context.Context, id uuid.UUID) (*Photo, error)
}
