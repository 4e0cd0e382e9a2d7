package store

import (
	"context"
	"sync"

	"trolley/internal/pricing"
)

// MemorySource serves a static tier table, typically parsed from inline
// configuration. Replace allows tests and admin tooling to swap the table.
type MemorySource struct {
	mu    sync.RWMutex
	tiers []pricing.Tier
}

// NewMemory creates a tier source over a fixed table.
func NewMemory(tiers []pricing.Tier) *MemorySource {
	return &MemorySource{tiers: tiers}
}

func (s *MemorySource) Tiers(ctx context.Context) ([]pricing.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pricing.Tier, len(s.tiers))
	copy(out, s.tiers)
	return out, nil
}

// Replace swaps the tier table wholesale.
func (s *MemorySource) Replace(tiers []pricing.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers = make([]pricing.Tier, len(tiers))
	copy(s.tiers, tiers)
}
