package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"trolley/pkg/domain"
	"trolley/pkg/platform/sentinel"
)

const keyPrefix = "cart:"

// RedisStore persists snapshots as whole JSON values keyed by cart ID.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedis creates a Redis-backed snapshot store.
func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, id domain.CartID) (*Snapshot, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w: %w", sentinel.ErrUnavailable, err)
	}
	return decode(payload)
}

func (s *RedisStore) Save(ctx context.Context, id domain.CartID, snap *Snapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+id.String(), payload, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
