package coupon

import (
	"context"

	"github.com/shopspring/decimal"
)

// Validator checks a coupon code against server-side rules and returns the
// discount it grants for the given order value.
//
// Failures are coded domain errors, never fatal faults: CodeInvalidCoupon for
// unknown, inactive, or expired codes; CodeMinimumNotMet when orderValue is
// below the coupon's floor. The cart adds its own session-level failures
// (CodeAlreadyApplied, CodeValidationInProgress) on top of this contract.
type Validator interface {
	Validate(ctx context.Context, code string, orderValue decimal.Decimal) (Result, error)
}
