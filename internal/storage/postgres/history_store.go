package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// AnalysisHistoryStore implements storage.AnalysisHistoryStore using PostgreSQL.
type AnalysisHistoryStore struct {
	pool *Pool
}

// NewAnalysisHistoryStore creates a new AnalysisHistoryStore.
func NewAnalysisHistoryStore(pool *Pool) *AnalysisHistoryStore {
	return &AnalysisHistoryStore{pool: pool}
}

var _ storage.AnalysisHistoryStore = (*AnalysisHistoryStore)(nil)

// Append records one completed analysis. Returns ErrDuplicateKey if the
// record ID already exists.
func (s *AnalysisHistoryStore) Append(ctx context.Context, r *domain.AnalysisRecord) error {
	if r == nil || r.Unit == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analysis_history (
			record_id, unit, ticker, mode, score, verdict,
			top_holder_pct, report, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RecordID,
		r.Unit,
		r.Ticker,
		string(r.Mode),
		r.Score,
		string(r.Verdict),
		r.TopHolderPct,
		r.Report,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("append analysis record: %w", err)
	}
	return nil
}

// GetByUnit returns the most recent analyses for a unit, newest first.
func (s *AnalysisHistoryStore) GetByUnit(ctx context.Context, unit string, limit int) ([]*domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := historySelect + `
		WHERE unit = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, unit, limit)
	if err != nil {
		return nil, fmt.Errorf("get analysis history by unit: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// GetSince returns every analysis recorded at or after the given
// millisecond timestamp, newest first.
func (s *AnalysisHistoryStore) GetSince(ctx context.Context, since int64) ([]*domain.AnalysisRecord, error) {
	query := historySelect + `
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("get analysis history since: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

const historySelect = `
	SELECT record_id, unit, ticker, mode, score, verdict,
		top_holder_pct, report, created_at
	FROM analysis_history
`

func collectRecords(rows pgx.Rows) ([]*domain.AnalysisRecord, error) {
	var result []*domain.AnalysisRecord
	for rows.Next() {
		var r domain.AnalysisRecord
		var mode, verdict string
		err := rows.Scan(
			&r.RecordID,
			&r.Unit,
			&r.Ticker,
			&mode,
			&r.Score,
			&verdict,
			&r.TopHolderPct,
			&r.Report,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analysis record: %w", err)
		}
		r.Mode = domain.AnalysisMode(mode)
		r.Verdict = domain.Verdict(verdict)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis records: %w", err)
	}
	return result, nil
}
