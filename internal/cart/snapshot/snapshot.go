// Package snapshot persists serialized cart state across sessions. Only raw
// state is stored (items and the applied coupon); derived totals are always
// recomputed on load.
package snapshot

import (
	"context"

	"github.com/shopspring/decimal"

	"trolley/pkg/domain"
)

// SchemaVersion guards against decoding snapshots written by an incompatible
// build. A mismatch is treated the same as corruption: empty cart, not a
// startup failure.
const SchemaVersion = 1

// Item is the wire form of one cart line.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Variant   string          `json:"variant,omitempty"`
}

// Coupon is the wire form of the applied coupon.
type Coupon struct {
	Code                 string          `json:"code"`
	Discount             decimal.Decimal `json:"discount"`
	SubtotalAtValidation decimal.Decimal `json:"subtotal_at_validation"`
}

// Snapshot is the full persisted cart state.
type Snapshot struct {
	SchemaVersion int     `json:"schema_version"`
	Items         []Item  `json:"items"`
	Coupon        *Coupon `json:"coupon,omitempty"`
}

// Store persists whole snapshots keyed by cart ID. Load returns
// sentinel.ErrNotFound for absent carts and wraps sentinel.ErrCorrupt for
// payloads that no longer decode; callers fall back to an empty cart in both
// cases. Save overwrites the whole value, there are no partial writes.
type Store interface {
	Load(ctx context.Context, id domain.CartID) (*Snapshot, error)
	Save(ctx context.Context, id domain.CartID, snap *Snapshot) error
}
