// Package pricing computes quantity-tier discounts. All functions are pure:
// the cart calls them speculatively for previews and authoritatively when it
// recomputes totals, and both call sites must agree.
package pricing

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Tier grants a percentage discount once a line's quantity reaches
// MinQuantity. Tiers are configuration handed to the engine; the cart never
// owns or mutates them.
type Tier struct {
	MinQuantity     int             `json:"min_quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

var hundred = decimal.NewFromInt(100)

// TierDiscountPercent returns the discount percent of the highest-threshold
// tier whose MinQuantity is at or below quantity, or zero if none qualifies.
// Caller order is not trusted: tiers are stably sorted by threshold first, so
// duplicate thresholds resolve to the later-declared tier.
func TierDiscountPercent(quantity int, tiers []Tier) decimal.Decimal {
	if quantity < 1 || len(tiers) == 0 {
		return decimal.Zero
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity < sorted[j].MinQuantity
	})

	percent := decimal.Zero
	for _, t := range sorted {
		if t.MinQuantity > quantity {
			break
		}
		percent = t.DiscountPercent
	}
	return percent
}

// UnitPriceAfterDiscount applies a percentage discount to a unit price.
func UnitPriceAfterDiscount(unit, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return unit
	}
	return unit.Mul(decimal.NewFromInt(1).Sub(percent.Div(hundred)))
}

// LineTotal is the tier-discounted price for one line. Tier discounts apply
// per line before the cart subtotal is summed; the coupon applies once after.
// That ordering is fixed and must not diverge between call sites.
func LineTotal(unit decimal.Decimal, quantity int, percent decimal.Decimal) decimal.Decimal {
	return UnitPriceAfterDiscount(unit, percent).Mul(decimal.NewFromInt(int64(quantity)))
}

// ParseTiers decodes an inline JSON tier table, e.g.
// [{"min_quantity":5,"discount_percent":"10"}]. Used when the promotions
// database is not configured.
func ParseTiers(raw string) ([]Tier, error) {
	if raw == "" {
		return nil, nil
	}
	var tiers []Tier
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
		return nil, fmt.Errorf("parse discount tiers: %w", err)
	}
	for _, t := range tiers {
		if t.MinQuantity < 1 {
			return nil, fmt.Errorf("tier min_quantity must be >= 1, got %d", t.MinQuantity)
		}
		if t.DiscountPercent.IsNegative() || t.DiscountPercent.GreaterThan(hundred) {
			return nil, fmt.Errorf("tier discount_percent must be in [0,100], got %s", t.DiscountPercent)
		}
	}
	return tiers, nil
}
