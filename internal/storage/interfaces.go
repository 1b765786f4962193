package storage

import (
	"context"

	"tokenwatch/internal/domain"
)

// TokenStore provides access to tokens storage. Tokens are upserted by
// unit with last-write-wins semantics and never deleted.
type TokenStore interface {
	// Upsert inserts or updates a token by unit.
	Upsert(ctx context.Context, t *domain.Token) error

	// GetByUnit retrieves a token. Returns ErrNotFound if not exists.
	GetByUnit(ctx context.Context, unit string) (*domain.Token, error)

	// ListUnits returns every known unit. Used to seed the monitoring
	// dedup set at process start.
	ListUnits(ctx context.Context) ([]string, error)

	// ListSuspicious returns tokens with risk score >= minScore, highest
	// score first, capped at limit.
	ListSuspicious(ctx context.Context, minScore, limit int) ([]*domain.Token, error)
}

// HolderStore persists the latest holder snapshot per (unit, stake).
type HolderStore interface {
	// ReplaceSnapshot atomically replaces the snapshot for a unit.
	ReplaceSnapshot(ctx context.Context, unit string, holders []*domain.HolderRecord) error

	// GetByUnit retrieves the latest snapshot, ordered by rank ASC.
	GetByUnit(ctx context.Context, unit string) ([]*domain.HolderRecord, error)
}

// TickerMappingStore maps tickers to units with confidence scoring.
type TickerMappingStore interface {
	// Upsert inserts or updates a mapping by (ticker, unit).
	Upsert(ctx context.Context, m *domain.TickerMapping) error

	// Resolve returns the highest-confidence mapping for a ticker.
	// Returns ErrNotFound if the ticker is unknown.
	Resolve(ctx context.Context, ticker string) (*domain.TickerMapping, error)
}

// AnalysisHistoryStore is the append-only analysis log.
type AnalysisHistoryStore interface {
	// Append adds one record. Returns ErrDuplicateKey if record_id exists.
	Append(ctx context.Context, rec *domain.AnalysisRecord) error

	// GetByUnit retrieves records for a unit, newest first, capped at limit.
	GetByUnit(ctx context.Context, unit string, limit int) ([]*domain.AnalysisRecord, error)

	// GetSince retrieves records created at or after since (ms), newest first.
	GetSince(ctx context.Context, since int64) ([]*domain.AnalysisRecord, error)
}
