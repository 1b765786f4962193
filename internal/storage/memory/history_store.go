package memory

import (
	"context"
	"sort"
	"sync"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// AnalysisHistoryStore is an in-memory implementation of storage.AnalysisHistoryStore.
type AnalysisHistoryStore struct {
	mu      sync.RWMutex
	records []*domain.AnalysisRecord
	byID    map[string]struct{}
}

// NewAnalysisHistoryStore creates a new in-memory analysis history store.
func NewAnalysisHistoryStore() *AnalysisHistoryStore {
	return &AnalysisHistoryStore{byID: make(map[string]struct{})}
}

var _ storage.AnalysisHistoryStore = (*AnalysisHistoryStore)(nil)

// Append records one completed analysis. Record IDs are unique: appending
// an already-recorded ID returns ErrDuplicateKey.
func (s *AnalysisHistoryStore) Append(_ context.Context, r *domain.AnalysisRecord) error {
	if r == nil || r.Unit == "" {
		return storage.ErrInvalidInput
	}

	recordCopy := *r
	recordCopy.Report = append([]byte(nil), r.Report...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[recordCopy.RecordID]; exists {
		return storage.ErrDuplicateKey
	}
	s.byID[recordCopy.RecordID] = struct{}{}
	s.records = append(s.records, &recordCopy)
	return nil
}

// GetByUnit returns the most recent analyses for a unit, newest first.
func (s *AnalysisHistoryStore) GetByUnit(_ context.Context, unit string, limit int) ([]*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisRecord
	for _, r := range s.records {
		if r.Unit == unit {
			result = append(result, copyRecord(r))
		}
	}
	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetSince returns every analysis recorded at or after the given
// millisecond timestamp, newest first.
func (s *AnalysisHistoryStore) GetSince(_ context.Context, since int64) ([]*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisRecord
	for _, r := range s.records {
		if r.CreatedAt >= since {
			result = append(result, copyRecord(r))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func copyRecord(r *domain.AnalysisRecord) *domain.AnalysisRecord {
	recordCopy := *r
	recordCopy.Report = append([]byte(nil), r.Report...)
	return &recordCopy
}

func sortNewestFirst(records []*domain.AnalysisRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
}
