package memory

import (
	"context"
	"sync"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// HolderStore is an in-memory implementation of storage.HolderStore.
type HolderStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.HolderRecord // keyed by unit
}

// NewHolderStore creates a new in-memory holder store.
func NewHolderStore() *HolderStore {
	return &HolderStore{
		data: make(map[string][]*domain.HolderRecord),
	}
}

var _ storage.HolderStore = (*HolderStore)(nil)

// ReplaceSnapshot atomically replaces the holder snapshot for a unit.
func (s *HolderStore) ReplaceSnapshot(_ context.Context, unit string, holders []*domain.HolderRecord) error {
	if unit == "" {
		return storage.ErrInvalidInput
	}

	snapshot := make([]*domain.HolderRecord, 0, len(holders))
	for _, h := range holders {
		if h == nil {
			continue
		}
		holderCopy := *h
		holderCopy.Unit = unit
		snapshot = append(snapshot, &holderCopy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[unit] = snapshot
	return nil
}

// GetByUnit returns the latest holder snapshot for a unit.
func (s *HolderStore) GetByUnit(_ context.Context, unit string) ([]*domain.HolderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.data[unit]
	if !ok {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.HolderRecord, 0, len(snapshot))
	for _, h := range snapshot {
		holderCopy := *h
		result = append(result, &holderCopy)
	}
	return result, nil
}
