package audit

import "time"

// Event is emitted from cart mutations to capture shopper actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	CartID    string    `json:"cart_id"`
	Action    string    `json:"action"`
	ProductID string    `json:"product_id,omitempty"`
	Variant   string    `json:"variant,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Channel   string    `json:"channel,omitempty"`
}

// Actions recorded against a cart.
const (
	ActionItemAdded       = "cart_item_added"
	ActionItemRemoved     = "cart_item_removed"
	ActionQuantityUpdated = "cart_quantity_updated"
	ActionCouponApplied   = "coupon_applied"
	ActionCouponRemoved   = "coupon_removed"
	ActionCartCleared     = "cart_cleared"
)
