//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"trolley/internal/pricing/store"
	"trolley/pkg/testutil/containers"
)

type PostgresSourceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	source   *store.PostgresSource
}

func TestPostgresSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := new(PostgresSourceSuite)
	s.postgres = containers.NewPostgresContainer(t)
	suite.Run(t, s)
}

func (s *PostgresSourceSuite) SetupSuite() {
	_, err := s.postgres.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS discount_tiers (
			position         SERIAL PRIMARY KEY,
			min_quantity     INT NOT NULL CHECK (min_quantity >= 1),
			discount_percent NUMERIC(5,2) NOT NULL CHECK (discount_percent BETWEEN 0 AND 100)
		)
	`)
	s.Require().NoError(err)
	s.source = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresSourceSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "discount_tiers"))
}

func (s *PostgresSourceSuite) insertTier(minQuantity int, percent string) {
	_, err := s.postgres.Exec(context.Background(),
		`INSERT INTO discount_tiers (min_quantity, discount_percent) VALUES ($1, $2)`,
		minQuantity, percent)
	s.Require().NoError(err)
}

func (s *PostgresSourceSuite) TestEmptyTable() {
	tiers, err := s.source.Tiers(context.Background())
	s.Require().NoError(err)
	s.Empty(tiers)
}

func (s *PostgresSourceSuite) TestReadsTiersInDeclaredOrder() {
	s.insertTier(10, "20")
	s.insertTier(5, "10")

	tiers, err := s.source.Tiers(context.Background())
	s.Require().NoError(err)
	s.Require().Len(tiers, 2)

	// Position order, not threshold order: declared order is what resolves
	// duplicate thresholds.
	s.Equal(10, tiers[0].MinQuantity)
	s.Equal("20", tiers[0].DiscountPercent.String())
	s.Equal(5, tiers[1].MinQuantity)
	s.Equal("10", tiers[1].DiscountPercent.String())
}

func (s *PostgresSourceSuite) TestDecimalPercentagesSurviveRoundTrip() {
	s.insertTier(3, "12.5")

	tiers, err := s.source.Tiers(context.Background())
	s.Require().NoError(err)
	s.Require().Len(tiers, 1)
	s.Equal("12.5", tiers[0].DiscountPercent.String())
}
