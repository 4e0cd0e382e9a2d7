//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trolley/internal/coupon/store"
	"trolley/pkg/platform/sentinel"
	"trolley/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := new(PostgresStoreSuite)
	s.postgres = containers.NewPostgresContainer(t)
	suite.Run(t, s)
}

func (s *PostgresStoreSuite) SetupSuite() {
	_, err := s.postgres.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS coupon_rules (
			code            TEXT PRIMARY KEY,
			discount        NUMERIC(12,2) NOT NULL CHECK (discount >= 0),
			min_order_value NUMERIC(12,2) NOT NULL DEFAULT 0,
			active          BOOLEAN NOT NULL DEFAULT TRUE,
			expires_at      TIMESTAMPTZ
		)
	`)
	s.Require().NoError(err)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "coupon_rules"))
}

func (s *PostgresStoreSuite) insertRule(code, discount, minOrderValue string, active bool, expiresAt *time.Time) {
	_, err := s.postgres.Exec(context.Background(),
		`INSERT INTO coupon_rules (code, discount, min_order_value, active, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		code, discount, minOrderValue, active, expiresAt)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestFindByCode() {
	s.insertRule("SAVE10", "10", "0", true, nil)

	rule, err := s.store.FindByCode(context.Background(), "SAVE10")
	s.Require().NoError(err)
	s.Equal("SAVE10", rule.Code)
	s.Equal("10", rule.Discount.String())
	s.True(rule.Active)
	s.Nil(rule.ExpiresAt)
}

func (s *PostgresStoreSuite) TestLookupCanonicalizesTheCode() {
	s.insertRule("SAVE10", "10", "0", true, nil)

	rule, err := s.store.FindByCode(context.Background(), "  save10 ")
	s.Require().NoError(err)
	s.Equal("SAVE10", rule.Code)
}

func (s *PostgresStoreSuite) TestUnknownCode() {
	_, err := s.store.FindByCode(context.Background(), "NOPE")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExpiryAndMinimumRoundTrip() {
	expiresAt := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)
	s.insertRule("BIG50", "50", "200", true, &expiresAt)

	rule, err := s.store.FindByCode(context.Background(), "BIG50")
	s.Require().NoError(err)
	s.Equal("200", rule.MinOrderValue.String())
	s.Require().NotNil(rule.ExpiresAt)
	s.True(rule.ExpiresAt.Equal(expiresAt))
	s.False(rule.Expired(expiresAt.Add(-time.Hour)))
	s.True(rule.Expired(expiresAt.Add(time.Hour)))
}

func (s *PostgresStoreSuite) TestInactiveRuleIsStillReadable() {
	s.insertRule("OLD", "5", "0", false, nil)

	rule, err := s.store.FindByCode(context.Background(), "OLD")
	s.Require().NoError(err)
	s.False(rule.Active)
}
