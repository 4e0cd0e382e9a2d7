// Package audit captures cart activity for downstream reporting. Publishing
// is fail-open: a lost event never fails the cart mutation that produced it.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher delivers events to a sink. Implementations must not block the
// caller beyond enqueueing.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// Emit publishes through p if it is configured, stamping the event time.
// Nil-safe so the cart can run without an audit sink.
func Emit(ctx context.Context, p Publisher, logger *slog.Logger, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"cart_id", event.CartID,
			"error", err.Error(),
		)
	}
}
