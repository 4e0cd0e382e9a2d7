package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trolley/internal/coupon"
	"trolley/pkg/platform/sentinel"
)

// PostgresStore reads coupon rules from the promotions database. Codes are
// stored uppercase; lookups canonicalize before querying.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed rule store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT code, discount, min_order_value, active, expires_at
		   FROM coupon_rules
		  WHERE code = $1`,
		coupon.Normalize(code))

	var rule coupon.Rule
	var expiresAt sql.NullTime
	err := row.Scan(&rule.Code, &rule.Discount, &rule.MinOrderValue, &rule.Active, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find coupon rule: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		rule.ExpiresAt = &t
	}
	return &rule, nil
}
