package store

import (
	"context"

	"trolley/internal/pricing"
)

// TierSource supplies the quantity-tier table. The table is owned by the
// promotions system; the engine only reads it.
type TierSource interface {
	Tiers(ctx context.Context) ([]pricing.Tier, error)
}
