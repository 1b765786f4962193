package clickhouse

import (
	"context"
	"fmt"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// AnalysisHistoryStore implements storage.AnalysisHistoryStore using
// ClickHouse. Intended as an analytical mirror of the relational history:
// MergeTree does not enforce uniqueness, so duplicate record IDs are the
// caller's responsibility.
type AnalysisHistoryStore struct {
	conn *Conn
}

// NewAnalysisHistoryStore creates a new AnalysisHistoryStore.
func NewAnalysisHistoryStore(conn *Conn) *AnalysisHistoryStore {
	return &AnalysisHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AnalysisHistoryStore = (*AnalysisHistoryStore)(nil)

// Append records one completed analysis.
func (s *AnalysisHistoryStore) Append(ctx context.Context, r *domain.AnalysisRecord) error {
	if r == nil || r.Unit == "" {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO analysis_history (
			record_id, unit, ticker, mode, score, verdict,
			top_holder_pct, report, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		r.RecordID,
		r.Unit,
		r.Ticker,
		string(r.Mode),
		int32(r.Score),
		string(r.Verdict),
		r.TopHolderPct,
		string(r.Report),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByUnit returns the most recent analyses for a unit, newest first.
func (s *AnalysisHistoryStore) GetByUnit(ctx context.Context, unit string, limit int) ([]*domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := historySelect + `
		WHERE unit = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, unit, limit)
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
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := s.conn.Query(ctx, query, since)
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

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectRecords(rows rowScanner) ([]*domain.AnalysisRecord, error) {
	var result []*domain.AnalysisRecord
	for rows.Next() {
		var (
			r             domain.AnalysisRecord
			mode, verdict string
			score         int32
			report        string
		)
		err := rows.Scan(
			&r.RecordID,
			&r.Unit,
			&r.Ticker,
			&mode,
			&score,
			&verdict,
			&r.TopHolderPct,
			&report,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan analysis record: %w", err)
		}
		r.Mode = domain.AnalysisMode(mode)
		r.Score = int(score)
		r.Verdict = domain.Verdict(verdict)
		r.Report = []byte(report)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis records: %w", err)
	}
	return result, nil
}
