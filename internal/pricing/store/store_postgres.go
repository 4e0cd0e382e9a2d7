package store

import (
	"context"
	"database/sql"
	"fmt"

	"trolley/internal/pricing"
)

// PostgresSource reads the tier table from the promotions database. Rows are
// ordered by position so duplicate thresholds keep their declared order
// (last-declared wins during tier selection).
type PostgresSource struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tier source.
func NewPostgres(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Tiers(ctx context.Context) ([]pricing.Tier, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT min_quantity, discount_percent
		   FROM discount_tiers
		  ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query discount tiers: %w", err)
	}
	defer rows.Close()

	var tiers []pricing.Tier
	for rows.Next() {
		var t pricing.Tier
		if err := rows.Scan(&t.MinQuantity, &t.DiscountPercent); err != nil {
			return nil, fmt.Errorf("scan discount tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discount tiers: %w", err)
	}
	return tiers, nil
}
