// Package memory provides in-memory storage implementations for tests
// and local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token // keyed by unit
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.Token),
	}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts or updates a token by unit.
func (s *TokenStore) Upsert(_ context.Context, t *domain.Token) error {
	if t == nil || t.Unit == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokenCopy := *t
	if existing, ok := s.data[t.Unit]; ok && tokenCopy.FirstSeenAt == 0 {
		tokenCopy.FirstSeenAt = existing.FirstSeenAt
	}
	s.data[t.Unit] = &tokenCopy
	return nil
}

// GetByUnit retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByUnit(_ context.Context, unit string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[unit]
	if !ok {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// ListUnits returns every known unit, sorted for determinism.
func (s *TokenStore) ListUnits(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	units := make([]string, 0, len(s.data))
	for unit := range s.data {
		units = append(units, unit)
	}
	sort.Strings(units)
	return units, nil
}

// ListSuspicious returns tokens with risk score >= minScore, highest first.
func (s *TokenStore) ListSuspicious(_ context.Context, minScore, limit int) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Token
	for _, t := range s.data {
		if t.RiskScore >= minScore && t.AnalyzedAt > 0 {
			tokenCopy := *t
			result = append(result, &tokenCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RiskScore != result[j].RiskScore {
			return result[i].RiskScore > result[j].RiskScore
		}
		return result[i].Unit < result[j].Unit
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
