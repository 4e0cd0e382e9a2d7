// Package domain holds typed identifiers shared across the engine. Typed IDs
// prevent cross-type assignment at compile time and enforce validity at parse
// time, the trust boundary for anything arriving over the wire.
package domain

import (
	"github.com/google/uuid"

	dErrors "trolley/pkg/domain-errors"
)

// CartID identifies one cart session. It is minted server-side and carried by
// the cart session token; it is never accepted raw from request bodies.
type CartID uuid.UUID

// NewCartID mints a fresh random cart ID.
func NewCartID() CartID {
	return CartID(uuid.New())
}

// ParseCartID validates and returns a CartID. Empty, malformed, and nil UUIDs
// are rejected.
func ParseCartID(s string) (CartID, error) {
	if s == "" {
		return CartID{}, dErrors.New(dErrors.CodeBadRequest, "cart id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return CartID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed cart id")
	}
	if u == uuid.Nil {
		return CartID{}, dErrors.New(dErrors.CodeBadRequest, "nil cart id")
	}
	return CartID(u), nil
}

func (id CartID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is the zero UUID.
func (id CartID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}
