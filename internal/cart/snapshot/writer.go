package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trolley/internal/platform/metrics"
	"trolley/pkg/domain"
)

// Writer decouples cart mutations from snapshot durability. Enqueue is
// fire-and-forget: mutations never block on the store, writes happen on a
// single goroutine in mutation order, and a newer snapshot for the same cart
// coalesces any older one still waiting. Durability is best-effort; failures
// are logged and counted, never surfaced to the mutation path.
type Writer struct {
	store        Store
	logger       *slog.Logger
	metrics      *metrics.Metrics
	writeTimeout time.Duration

	mu      sync.Mutex
	pending map[domain.CartID]*Snapshot
	order   []domain.CartID
	wake    chan struct{}
}

// WriterOption configures the Writer.
type WriterOption func(*Writer)

// WithLogger sets a logger for write failures.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) WriterOption {
	return func(w *Writer) {
		w.metrics = m
	}
}

// NewWriter creates a writer over the given store. Run must be started for
// enqueued snapshots to reach the store.
func NewWriter(store Store, opts ...WriterOption) *Writer {
	w := &Writer{
		store:        store,
		writeTimeout: 5 * time.Second,
		pending:      make(map[domain.CartID]*Snapshot),
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enqueue schedules a snapshot write and returns immediately. A snapshot
// already pending for the same cart is replaced (whole-value overwrite makes
// intermediate states redundant).
func (w *Writer) Enqueue(id domain.CartID, snap *Snapshot) {
	w.mu.Lock()
	if _, exists := w.pending[id]; !exists {
		w.order = append(w.order, id)
	}
	w.pending[id] = snap
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is cancelled, then flushes whatever is still
// pending and returns.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush(context.WithoutCancel(ctx))
			return nil
		case <-w.wake:
			w.flush(ctx)
		}
	}
}

func (w *Writer) flush(ctx context.Context) {
	w.mu.Lock()
	batch := w.pending
	order := w.order
	w.pending = make(map[domain.CartID]*Snapshot)
	w.order = nil
	w.mu.Unlock()

	for _, id := range order {
		snap := batch[id]
		writeCtx, cancel := context.WithTimeout(ctx, w.writeTimeout)
		err := w.store.Save(writeCtx, id, snap)
		cancel()
		if err != nil {
			if w.metrics != nil {
				w.metrics.SnapshotSaveFailures.Inc()
			}
			if w.logger != nil {
				w.logger.Warn("snapshot save failed; cart continues in memory",
					"cart_id", id.String(),
					"error", err.Error(),
				)
			}
		}
	}
}
