package memory

import (
	"context"
	"strings"
	"sync"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// TickerMappingStore is an in-memory implementation of storage.TickerMappingStore.
type TickerMappingStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TickerMapping // keyed by upper-cased ticker
}

// NewTickerMappingStore creates a new in-memory ticker mapping store.
func NewTickerMappingStore() *TickerMappingStore {
	return &TickerMappingStore{
		data: make(map[string]*domain.TickerMapping),
	}
}

var _ storage.TickerMappingStore = (*TickerMappingStore)(nil)

// Upsert stores a ticker->unit mapping. A mapping with higher confidence
// is never overwritten by one with lower confidence.
func (s *TickerMappingStore) Upsert(_ context.Context, m *domain.TickerMapping) error {
	if m == nil || m.Ticker == "" || m.Unit == "" {
		return storage.ErrInvalidInput
	}

	key := strings.ToUpper(m.Ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[key]; ok && existing.Confidence > m.Confidence {
		return nil
	}
	mappingCopy := *m
	s.data[key] = &mappingCopy
	return nil
}

// Resolve looks up a unit by ticker. Lookup is case-insensitive and
// tolerates a leading "$".
func (s *TickerMappingStore) Resolve(_ context.Context, ticker string) (*domain.TickerMapping, error) {
	key := strings.ToUpper(strings.TrimPrefix(ticker, "$"))

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	mappingCopy := *m
	return &mappingCopy, nil
}
