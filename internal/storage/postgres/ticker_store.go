package postgres

import (
	"context"
	"fmt"
	"strings"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// TickerMappingStore implements storage.TickerMappingStore using PostgreSQL.
type TickerMappingStore struct {
	pool *Pool
}

// NewTickerMappingStore creates a new TickerMappingStore.
func NewTickerMappingStore(pool *Pool) *TickerMappingStore {
	return &TickerMappingStore{pool: pool}
}

var _ storage.TickerMappingStore = (*TickerMappingStore)(nil)

// Upsert stores a ticker->unit mapping. An existing mapping with strictly
// higher confidence is kept.
func (s *TickerMappingStore) Upsert(ctx context.Context, m *domain.TickerMapping) error {
	if m == nil || m.Ticker == "" || m.Unit == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO ticker_mapping (ticker, unit, confidence, source, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker) DO UPDATE SET
			unit = EXCLUDED.unit,
			confidence = EXCLUDED.confidence,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
		WHERE ticker_mapping.confidence <= EXCLUDED.confidence
	`

	_, err := s.pool.Exec(ctx, query,
		strings.ToUpper(m.Ticker),
		m.Unit,
		m.Confidence,
		m.Source,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ticker mapping: %w", err)
	}
	return nil
}

// Resolve looks up a mapping by ticker. Lookup is case-insensitive and
// tolerates a leading "$".
func (s *TickerMappingStore) Resolve(ctx context.Context, ticker string) (*domain.TickerMapping, error) {
	key := strings.ToUpper(strings.TrimPrefix(ticker, "$"))

	query := `
		SELECT ticker, unit, confidence, source, updated_at
		FROM ticker_mapping
		WHERE ticker = $1
	`

	var m domain.TickerMapping
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&m.Ticker,
		&m.Unit,
		&m.Confidence,
		&m.Source,
		&m.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("resolve ticker: %w", err)
	}
	return &m, nil
}
