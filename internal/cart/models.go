package cart

import (
	"github.com/shopspring/decimal"
)

// LineItem is one product/variant entry in the cart. Identity is the
// (ProductID, Variant) pair: two additions sharing the pair merge by summing
// quantity, different variants of one product stay distinct lines.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
}

type lineKey struct {
	productID string
	variant   string
}

func (li LineItem) key() lineKey {
	return lineKey{productID: li.ProductID, variant: li.Variant}
}

// AppliedCoupon is the normalized coupon stored after a successful
// validation. SubtotalAtValidation is state, not a derived field: it is what
// makes staleness detectable after later item mutations.
type AppliedCoupon struct {
	Code                 string          `json:"code"`
	Discount             decimal.Decimal `json:"discount"`
	SubtotalAtValidation decimal.Decimal `json:"subtotal_at_validation"`
}

// PricedLine is a line item with its tier-discount breakdown, for consumers
// that render per-line pricing.
type PricedLine struct {
	LineItem
	DiscountPercent        decimal.Decimal `json:"discount_percent"`
	UnitPriceAfterDiscount decimal.Decimal `json:"unit_price_after_discount"`
	LineTotal              decimal.Decimal `json:"line_total"`
}

// View is the read-only derived state downstream layers consume. Every field
// is recomputed from the items and the applied coupon on each call; nothing
// here is cached.
type View struct {
	Lines       []PricedLine    `json:"items"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Total       decimal.Decimal `json:"total"`
	Coupon      *AppliedCoupon  `json:"coupon,omitempty"`
	CouponStale bool            `json:"coupon_stale"`
}
