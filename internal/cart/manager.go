package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"trolley/internal/cart/snapshot"
	"trolley/internal/platform/metrics"
	"trolley/pkg/domain"
	"trolley/pkg/platform/sentinel"
)

// Manager is the session registry: one Cart per cart ID, created on first
// access and seeded from its persisted snapshot. A missing, corrupt, or
// unreadable snapshot degrades to an empty cart; restoring state must never
// take the storefront down.
type Manager struct {
	store    snapshot.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cartOpts []Option

	mu    sync.RWMutex
	carts map[domain.CartID]*Cart
}

// NewManager creates a registry. store may be nil (in-memory-only operation);
// cartOpts are applied to every cart it creates.
func NewManager(store snapshot.Store, logger *slog.Logger, m *metrics.Metrics, cartOpts ...Option) *Manager {
	return &Manager{
		store:    store,
		logger:   logger,
		metrics:  m,
		cartOpts: cartOpts,
		carts:    make(map[domain.CartID]*Cart),
	}
}

// Get returns the cart for the given session, creating and restoring it on
// first access.
func (m *Manager) Get(ctx context.Context, id domain.CartID) (*Cart, error) {
	if id.IsNil() {
		return nil, errors.New("cart id is required")
	}

	m.mu.RLock()
	c, ok := m.carts[id]
	m.mu.RUnlock()
	if ok {
		return c, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[id]; ok {
		return c, nil
	}

	c = New(id, m.cartOpts...)
	if snap := m.loadSnapshot(ctx, id); snap != nil {
		c.restore(snap)
	}
	m.carts[id] = c
	return c, nil
}

// loadSnapshot fetches persisted state, treating every failure mode as "no
// snapshot". Corruption and store outages are logged and counted, not raised.
func (m *Manager) loadSnapshot(ctx context.Context, id domain.CartID) *snapshot.Snapshot {
	if m.store == nil {
		return nil
	}
	snap, err := m.store.Load(ctx, id)
	if err == nil {
		return snap
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if m.metrics != nil {
		m.metrics.SnapshotLoadFailures.Inc()
	}
	if m.logger != nil {
		m.logger.WarnContext(ctx, "snapshot load failed; starting with empty cart",
			"cart_id", id.String(),
			"error", err.Error(),
		)
	}
	return nil
}
