// Package service implements the in-process coupon validator over a rule
// store. Deployments with a dedicated promotions service use the HTTP adapter
// instead; both satisfy coupon.Validator.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"trolley/internal/coupon"
	"trolley/internal/coupon/store"
	dErrors "trolley/pkg/domain-errors"
	"trolley/pkg/platform/sentinel"
)

type Service struct {
	store  store.RuleStore
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides wall-clock time for expiry checks in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(ruleStore store.RuleStore, opts ...Option) (*Service, error) {
	if ruleStore == nil {
		return nil, fmt.Errorf("coupon rule store is required")
	}

	svc := &Service{
		store: ruleStore,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Validate checks a code against the rule store. An unknown, inactive, or
// expired code is an expected user-input outcome, not a system fault, so it
// comes back as a coded error the cart surfaces to the caller.
func (s *Service) Validate(ctx context.Context, code string, orderValue decimal.Decimal) (coupon.Result, error) {
	normalized := coupon.Normalize(code)
	if normalized == "" {
		return coupon.Result{}, dErrors.New(dErrors.CodeInvalidCoupon, "coupon code is required")
	}
	if orderValue.IsNegative() {
		return coupon.Result{}, dErrors.New(dErrors.CodeBadRequest, "order value must not be negative")
	}

	rule, err := s.store.FindByCode(ctx, normalized)
	if errors.Is(err, sentinel.ErrNotFound) {
		return coupon.Result{}, dErrors.New(dErrors.CodeInvalidCoupon, "coupon does not exist")
	}
	if err != nil {
		return coupon.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up coupon")
	}

	if !rule.Active || rule.Expired(s.now()) {
		return coupon.Result{}, dErrors.New(dErrors.CodeInvalidCoupon, "coupon is no longer active")
	}
	if orderValue.LessThan(rule.MinOrderValue) {
		return coupon.Result{}, dErrors.New(dErrors.CodeMinimumNotMet,
			fmt.Sprintf("order value %s is below the coupon minimum %s", orderValue, rule.MinOrderValue))
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "coupon validated",
			"code", normalized,
			"discount", rule.Discount.String(),
		)
	}

	return coupon.Result{Code: normalized, Discount: rule.Discount}, nil
}
