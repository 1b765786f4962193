package clickhouse

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenwatch/internal/domain"
)

func TestAnalysisHistoryStore_AppendAndGetByUnit(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAnalysisHistoryStore(conn)
	ctx := context.Background()

	records := []*domain.AnalysisRecord{
		{RecordID: uuid.NewString(), Unit: "unit1", Ticker: "SNEK", Mode: domain.ModeDeep, Score: 3, Verdict: domain.VerdictLow, Report: []byte(`{"score":3}`), CreatedAt: 100},
		{RecordID: uuid.NewString(), Unit: "unit1", Ticker: "SNEK", Mode: domain.ModeGold, Score: 8, Verdict: domain.VerdictExtreme, Report: []byte(`{"score":8}`), CreatedAt: 300},
		{RecordID: uuid.NewString(), Unit: "unit2", Ticker: "HOSK", Mode: domain.ModeDeep, Score: 5, Verdict: domain.VerdictModerate, Report: []byte(`{"score":5}`), CreatedAt: 200},
	}
	for _, r := range records {
		require.NoError(t, store.Append(ctx, r))
	}

	result, err := store.GetByUnit(ctx, "unit1", 10)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, 8, result[0].Score)
	assert.Equal(t, domain.ModeGold, result[0].Mode)
	assert.Equal(t, domain.VerdictExtreme, result[0].Verdict)
	assert.JSONEq(t, `{"score":8}`, string(result[0].Report))
}

func TestAnalysisHistoryStore_GetSince(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAnalysisHistoryStore(conn)
	ctx := context.Background()

	for _, created := range []int64{100, 200, 300} {
		require.NoError(t, store.Append(ctx, &domain.AnalysisRecord{
			RecordID:  uuid.NewString(),
			Unit:      "unit1",
			CreatedAt: created,
		}))
	}

	result, err := store.GetSince(ctx, 200)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, int64(300), result[0].CreatedAt)
}
