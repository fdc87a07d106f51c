package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/lexgraph/pkg/common"
)

// MemoryStorage keeps analyses in process memory. It backs the CLI and tests
// and is the default when no database is configured.
type MemoryStorage struct {
	mu       sync.RWMutex
	analyses map[string]common.Analysis
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{analyses: map[string]common.Analysis{}}
}

func (s *MemoryStorage) SaveAnalysis(_ context.Context, a common.Analysis) error {
	if a.ID == "" {
		return fmt.Errorf("save analysis: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.ID] = CloneAnalysis(a)
	return nil
}

func (s *MemoryStorage) GetAnalysis(_ context.Context, id string) (common.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok {
		return common.Analysis{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return CloneAnalysis(a), nil
}
