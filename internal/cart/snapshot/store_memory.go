package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"trolley/pkg/domain"
	"trolley/pkg/platform/sentinel"
)

// MemoryStore keeps encoded snapshots in memory. It stores bytes rather than
// structs so the decode path (including corruption handling) matches the
// Redis store exactly.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[domain.CartID][]byte
}

// NewMemory creates an empty in-memory snapshot store.
func NewMemory() *MemoryStore {
	return &MemoryStore{carts: make(map[domain.CartID][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, id domain.CartID) (*Snapshot, error) {
	s.mu.RLock()
	payload, ok := s.carts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return decode(payload)
}

func (s *MemoryStore) Save(ctx context.Context, id domain.CartID, snap *Snapshot) error {
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.carts[id] = payload
	s.mu.Unlock()
	return nil
}

// Corrupt overwrites a cart's payload with garbage. Test hook for the
// corrupt-snapshot degradation path.
func (s *MemoryStore) Corrupt(id domain.CartID) {
	s.mu.Lock()
	s.carts[id] = []byte("{not json")
	s.mu.Unlock()
}

func encode(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is required")
	}
	snap.SchemaVersion = SchemaVersion
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return payload, nil
}

func decode(payload []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w: %w", sentinel.ErrCorrupt, err)
	}
	if snap.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("snapshot schema version %d: %w", snap.SchemaVersion, sentinel.ErrCorrupt)
	}
	return &snap, nil
}
