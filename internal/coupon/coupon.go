// Package coupon defines the validation boundary the cart consumes. A coupon
// grants a fixed discount amount, validated against server-side rules; the
// cart never interprets rules itself.
package coupon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/validator_mock.go -package=mocks trolley/internal/coupon Validator

// Result is what a successful validation returns. The cart stores only the
// normalized code and the discount amount.
type Result struct {
	Code     string
	Discount decimal.Decimal
}

// Rule is one server-side coupon definition from the promotions system.
type Rule struct {
	Code          string
	Discount      decimal.Decimal
	MinOrderValue decimal.Decimal
	Active        bool
	ExpiresAt     *time.Time
}

// Expired reports whether the rule has lapsed as of now.
func (r *Rule) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// Normalize canonicalizes a user-entered code. Comparison is case-insensitive
// everywhere; the canonical form is uppercase.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
