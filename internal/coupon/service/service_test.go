package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"trolley/internal/coupon"
	"trolley/internal/coupon/store"
	dErrors "trolley/pkg/domain-errors"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type ServiceSuite struct {
	suite.Suite
	ctx   context.Context
	rules *store.MemoryStore
	now   time.Time
	svc   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.rules = store.NewMemory()
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	svc, err := New(s.rules, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) TestRequiresRuleStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *ServiceSuite) TestValidCoupon() {
	s.rules.Put(coupon.Rule{Code: "SAVE10", Discount: d("10"), Active: true})

	result, err := s.svc.Validate(s.ctx, "SAVE10", d("100"))
	s.Require().NoError(err)
	s.Equal("SAVE10", result.Code)
	s.Equal("10", result.Discount.String())
}

func (s *ServiceSuite) TestCodeIsCaseAndWhitespaceInsensitive() {
	s.rules.Put(coupon.Rule{Code: "save10", Discount: d("10"), Active: true})

	result, err := s.svc.Validate(s.ctx, "  Save10 ", d("100"))
	s.Require().NoError(err)
	s.Equal("SAVE10", result.Code)
}

func (s *ServiceSuite) TestEmptyCode() {
	_, err := s.svc.Validate(s.ctx, "   ", d("100"))
	s.True(dErrors.Is(err, dErrors.CodeInvalidCoupon))
}

func (s *ServiceSuite) TestNegativeOrderValue() {
	_, err := s.svc.Validate(s.ctx, "SAVE10", d("-1"))
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestUnknownCoupon() {
	_, err := s.svc.Validate(s.ctx, "NOPE", d("100"))
	s.True(dErrors.Is(err, dErrors.CodeInvalidCoupon))
}

func (s *ServiceSuite) TestInactiveCoupon() {
	s.rules.Put(coupon.Rule{Code: "SAVE10", Discount: d("10"), Active: false})

	_, err := s.svc.Validate(s.ctx, "SAVE10", d("100"))
	s.True(dErrors.Is(err, dErrors.CodeInvalidCoupon))
}

func (s *ServiceSuite) TestExpiredCoupon() {
	expired := s.now.Add(-time.Hour)
	s.rules.Put(coupon.Rule{Code: "SAVE10", Discount: d("10"), Active: true, ExpiresAt: &expired})

	_, err := s.svc.Validate(s.ctx, "SAVE10", d("100"))
	s.True(dErrors.Is(err, dErrors.CodeInvalidCoupon))
}

func (s *ServiceSuite) TestNotYetExpiredCoupon() {
	future := s.now.Add(time.Hour)
	s.rules.Put(coupon.Rule{Code: "SAVE10", Discount: d("10"), Active: true, ExpiresAt: &future})

	_, err := s.svc.Validate(s.ctx, "SAVE10", d("100"))
	s.NoError(err)
}

func (s *ServiceSuite) TestMinimumOrderValue() {
	s.rules.Put(coupon.Rule{Code: "BIG50", Discount: d("50"), MinOrderValue: d("200"), Active: true})

	_, err := s.svc.Validate(s.ctx, "BIG50", d("199.99"))
	s.True(dErrors.Is(err, dErrors.CodeMinimumNotMet))

	// Exactly at the floor qualifies.
	result, err := s.svc.Validate(s.ctx, "BIG50", d("200"))
	s.Require().NoError(err)
	s.Equal("50", result.Discount.String())
}
