package postgres

import (
	"context"
	"fmt"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

// HolderStore implements storage.HolderStore using PostgreSQL.
type HolderStore struct {
	pool *Pool
}

// NewHolderStore creates a new HolderStore.
func NewHolderStore(pool *Pool) *HolderStore {
	return &HolderStore{pool: pool}
}

var _ storage.HolderStore = (*HolderStore)(nil)

// ReplaceSnapshot replaces the holder snapshot for a unit inside one
// transaction, so readers never observe a partial snapshot.
func (s *HolderStore) ReplaceSnapshot(ctx context.Context, unit string, holders []*domain.HolderRecord) error {
	if unit == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin holder snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM token_holders WHERE unit = $1`, unit); err != nil {
		return fmt.Errorf("clear holder snapshot: %w", err)
	}

	query := `
		INSERT INTO token_holders (
			unit, stake_address, quantity, percentage, rank, handle,
			is_pool, is_exchange, is_burn, is_whale, is_major, snapshot_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, h := range holders {
		if h == nil || h.StakeAddress == "" {
			continue
		}
		_, err := tx.Exec(ctx, query,
			unit,
			h.StakeAddress,
			h.Quantity,
			h.Percentage,
			h.Rank,
			h.Handle,
			h.IsPool,
			h.IsExchange,
			h.IsBurn,
			h.IsWhale,
			h.IsMajor,
			h.SnapshotAt,
		)
		if err != nil {
			return fmt.Errorf("insert holder %s: %w", h.StakeAddress, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit holder snapshot: %w", err)
	}
	return nil
}

// GetByUnit returns the latest holder snapshot for a unit, ordered by rank.
func (s *HolderStore) GetByUnit(ctx context.Context, unit string) ([]*domain.HolderRecord, error) {
	query := `
		SELECT unit, stake_address, quantity, percentage, rank, handle,
			is_pool, is_exchange, is_burn, is_whale, is_major, snapshot_at
		FROM token_holders
		WHERE unit = $1
		ORDER BY rank, stake_address
	`

	rows, err := s.pool.Query(ctx, query, unit)
	if err != nil {
		return nil, fmt.Errorf("get holders by unit: %w", err)
	}
	defer rows.Close()

	var result []*domain.HolderRecord
	for rows.Next() {
		var h domain.HolderRecord
		err := rows.Scan(
			&h.Unit,
			&h.StakeAddress,
			&h.Quantity,
			&h.Percentage,
			&h.Rank,
			&h.Handle,
			&h.IsPool,
			&h.IsExchange,
			&h.IsBurn,
			&h.IsWhale,
			&h.IsMajor,
			&h.SnapshotAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan holder: %w", err)
		}
		result = append(result, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holders: %w", err)
	}

	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}
