package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteHistoryStore(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func historyDay(t *testing.T, s string) schema.Date {
	t.Helper()
	d, err := schema.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestHistoryStoreRuns(t *testing.T) {
	store := newSQLiteHistoryStore(t)
	start := time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

	runID, err := store.BeginRun("trend", start, map[string]any{"users": []string{"alice"}})
	require.NoError(t, err)
	assert.Positive(t, runID)

	require.NoError(t, store.EndRun(runID, start.Add(1500*time.Millisecond), 5))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, "trend", run.Command)
	assert.True(t, start.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.DurationMs)
	assert.Equal(t, int32(1500), *run.DurationMs)
	assert.Equal(t, int32(5), run.TotalScores)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"users":["alice"]}`, *run.ConfigParams)

	assert.Error(t, store.EndRun(runID+100, start, 0), "unknown run should fail")
}

func TestHistoryStoreUserHistory(t *testing.T) {
	store := newSQLiteHistoryStore(t)
	recorded := time.Date(2024, time.June, 6, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return recorded }

	first, err := store.BeginRun("trend", recorded, nil)
	require.NoError(t, err)
	second, err := store.BeginRun("trend", recorded, nil)
	require.NoError(t, err)

	record := func(runID int64, user, day string, score float64) {
		require.NoError(t, store.RecordDailyScore(runID, user, schema.HistoricalScore{
			Date:            historyDay(t, day),
			Score:           schema.Score(score),
			RiskLevel:       schema.LowRisk,
			Summary:         "quiet",
			ActivitiesCount: 2,
		}))
	}
	record(first, "alice", "2024-06-01", 1.0)
	record(first, "alice", "2024-06-02", 1.5)
	record(second, "alice", "2024-06-02", 2.5)
	record(second, "alice", "2024-06-09", 4.0)
	record(second, "bob", "2024-06-01", 3.0)

	history, err := store.GetUserHistory("alice", historyDay(t, "2024-06-01"), historyDay(t, "2024-06-05"))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-06-01", history[0].Date.String())
	assert.Equal(t, schema.Score(1.0), history[0].Score)
	assert.Equal(t, "2024-06-02", history[1].Date.String())
	assert.Equal(t, schema.Score(2.5), history[1].Score, "latest run wins")
	assert.Equal(t, schema.LowRisk, history[1].RiskLevel)
	assert.Equal(t, 2, history[1].ActivitiesCount)

	none, err := store.GetUserHistory("carol", historyDay(t, "2024-06-01"), historyDay(t, "2024-06-05"))
	require.NoError(t, err)
	assert.Empty(t, none)

	records, err := store.GetAllRecords()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "bob", records[4].UserID)
	assert.True(t, recorded.Equal(records[0].RecordedAt))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, second, status.LastRunID)
	assert.Equal(t, 5, status.TotalScores)
	assert.Equal(t, 2, status.DistinctUsers)
	assert.Equal(t, int64(5), status.TableSizes[dailyScoresTable])
}

func TestHistoryStoreNoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun("score", time.Now(), nil)
	require.NoError(t, err)
	assert.Zero(t, runID)
	assert.NoError(t, store.EndRun(runID, time.Now(), 0))
	assert.NoError(t, store.RecordDailyScore(runID, "alice", schema.HistoricalScore{}))

	history, err := store.GetUserHistory("alice", schema.Date{}, schema.Date{})
	require.NoError(t, err)
	assert.Nil(t, history)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestHistoryStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	_, err = store.BeginRun("score", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening an up-to-date schema is a no-op migration
	store, err = NewHistoryStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
}
