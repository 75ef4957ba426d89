package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory implementation of Store, used in tests and for
// throwaway local runs.
type MemoryStore struct {
	mu   sync.RWMutex
	sets map[string]map[string]json.RawMessage
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets: make(map[string]map[string]json.RawMessage),
	}
}

func (m *MemoryStore) Load(_ context.Context, set string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make(map[string]json.RawMessage, len(m.sets[set]))
	for id, payload := range m.sets[set] {
		records[id] = payload
	}

	return records, nil
}

func (m *MemoryStore) Save(_ context.Context, set string, records map[string]json.RawMessage) error {
	copied := make(map[string]json.RawMessage, len(records))
	for id, payload := range records {
		copied[id] = payload
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sets[set] = copied

	return nil
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)
