package cache

import (
	"context"
	"sync"
)

// MemoryPersister keeps records in process memory. It backs tests and the
// "memory" cache backend.
type MemoryPersister struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{records: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryPersister) Save(_ context.Context, name string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.records[name] = buf
	m.mu.Unlock()
	return nil
}
