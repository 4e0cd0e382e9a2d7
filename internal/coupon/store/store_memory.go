package store

import (
	"context"
	"sync"

	"trolley/internal/coupon"
	"trolley/pkg/platform/sentinel"
)

// MemoryStore holds coupon rules in memory, keyed by canonical code.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]coupon.Rule
}

// NewMemory creates an empty in-memory rule store.
func NewMemory() *MemoryStore {
	return &MemoryStore{rules: make(map[string]coupon.Rule)}
}

func (s *MemoryStore) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[coupon.Normalize(code)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := rule
	return &out, nil
}

// Put inserts or replaces a rule under its canonical code.
func (s *MemoryStore) Put(rule coupon.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule.Code = coupon.Normalize(rule.Code)
	s.rules[rule.Code] = rule
}
