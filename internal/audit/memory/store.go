// Package memory provides an in-process audit sink for tests and for
// deployments without a broker.
package memory

import (
	"context"
	"sync"

	"trolley/internal/audit"
)

// Sink appends events to a slice. Safe for concurrent use.
type Sink struct {
	mu     sync.RWMutex
	events []audit.Event
}

// New creates an empty sink.
func New() *Sink {
	return &Sink{}
}

func (s *Sink) Emit(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything emitted so far.
func (s *Sink) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Sink) Close() error { return nil }
