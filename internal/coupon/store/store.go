package store

import (
	"context"

	"trolley/internal/coupon"
)

// RuleStore reads coupon rules from the promotions system. Lookups take the
// canonical uppercase code; missing codes return sentinel.ErrNotFound.
type RuleStore interface {
	FindByCode(ctx context.Context, code string) (*coupon.Rule, error)
}
