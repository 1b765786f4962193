package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/storage"
)

func TestAnalysisHistoryStore_AppendAndGetByUnit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAnalysisHistoryStore(pool)
	ctx := context.Background()

	records := []*domain.AnalysisRecord{
		{RecordID: uuid.NewString(), Unit: "unit1", Ticker: "SNEK", Mode: domain.ModeDeep, Score: 3, Verdict: domain.VerdictLow, Report: []byte(`{"score":3}`), CreatedAt: 100},
		{RecordID: uuid.NewString(), Unit: "unit1", Ticker: "SNEK", Mode: domain.ModeDeep, Score: 7, Verdict: domain.VerdictHigh, Report: []byte(`{"score":7}`), CreatedAt: 300},
		{RecordID: uuid.NewString(), Unit: "unit2", Ticker: "HOSK", Mode: domain.ModeGold, Score: 5, Verdict: domain.VerdictModerate, Report: []byte(`{"score":5}`), CreatedAt: 200},
	}
	for _, r := range records {
		require.NoError(t, store.Append(ctx, r))
	}

	result, err := store.GetByUnit(ctx, "unit1", 10)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, 7, result[0].Score)
	assert.Equal(t, domain.VerdictHigh, result[0].Verdict)
	assert.Equal(t, domain.ModeDeep, result[0].Mode)
	assert.JSONEq(t, `{"score":7}`, string(result[0].Report))
}

func TestAnalysisHistoryStore_DuplicateRecordID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAnalysisHistoryStore(pool)
	ctx := context.Background()

	r := &domain.AnalysisRecord{RecordID: "fixed-id", Unit: "unit1", CreatedAt: 100}
	require.NoError(t, store.Append(ctx, r))

	err := store.Append(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestAnalysisHistoryStore_GetSince(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAnalysisHistoryStore(pool)
	ctx := context.Background()

	for i, created := range []int64{100, 200, 300} {
		require.NoError(t, store.Append(ctx, &domain.AnalysisRecord{
			RecordID:  uuid.NewString(),
			Unit:      "unit1",
			Score:     i,
			CreatedAt: created,
		}))
	}

	result, err := store.GetSince(ctx, 200)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, int64(300), result[0].CreatedAt)
}
