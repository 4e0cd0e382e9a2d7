package coupon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	dErrors "trolley/pkg/domain-errors"
)

// HTTPValidator validates coupons against a remote promotions service. This
// is the only network-shaped dependency of the cart core.
type HTTPValidator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPValidator creates a validator client for the given base URL.
func NewHTTPValidator(baseURL string) *HTTPValidator {
	return &HTTPValidator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type validateRequest struct {
	Code       string          `json:"code"`
	OrderValue decimal.Decimal `json:"order_value"`
}

type validateResponse struct {
	Coupon struct {
		Code string `json:"code"`
	} `json:"coupon"`
	Discount decimal.Decimal `json:"discount"`
}

type validateError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Validate posts {code, order_value} and maps the response onto the shared
// error taxonomy. Transport failures come back as CodeUnavailable so the cart
// can surface a retryable condition instead of a coupon rejection.
func (v *HTTPValidator) Validate(ctx context.Context, code string, orderValue decimal.Decimal) (Result, error) {
	body, err := json.Marshal(validateRequest{Code: Normalize(code), OrderValue: orderValue})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode validation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/validate", bytes.NewReader(body))
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "build validation request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "coupon validator unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var ve validateError
		if err := json.NewDecoder(resp.Body).Decode(&ve); err != nil {
			return Result{}, dErrors.New(dErrors.CodeUnavailable,
				fmt.Sprintf("coupon validator returned status %d", resp.StatusCode))
		}
		return Result{}, mapRemoteError(ve)
	}

	var vr validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "decode validation response")
	}
	if vr.Discount.IsNegative() {
		return Result{}, dErrors.New(dErrors.CodeInternal, "validator returned a negative discount")
	}

	return Result{Code: Normalize(vr.Coupon.Code), Discount: vr.Discount}, nil
}

func mapRemoteError(ve validateError) error {
	msg := ve.Message
	if msg == "" {
		msg = "coupon rejected"
	}
	switch dErrors.Code(ve.Error) {
	case dErrors.CodeInvalidCoupon:
		return dErrors.New(dErrors.CodeInvalidCoupon, msg)
	case dErrors.CodeMinimumNotMet:
		return dErrors.New(dErrors.CodeMinimumNotMet, msg)
	default:
		return dErrors.New(dErrors.CodeUnavailable, msg)
	}
}
