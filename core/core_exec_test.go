package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/iocache"
	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// writeUserFile stores the activities of one user as a JSON data file.
func writeUserFile(t *testing.T, dir, userID string, items []schema.ActivityItem) {
	t.Helper()
	data, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, userID+".json"), data, 0o644))
}

// execConfig writes JSON output to a temp file and reads activities from dataDir.
func execConfig(t *testing.T, dataDir string, users ...string) *contract.Config {
	t.Helper()
	cfg := testConfig()
	cfg.DataDir = dataDir
	cfg.Users = users
	cfg.Output = schema.JSONOut
	cfg.Precision = 1
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.json")
	return cfg
}

func readOutput[T any](t *testing.T, cfg *contract.Config) T {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestExecuteScore(t *testing.T) {
	dir := t.TempDir()
	writeUserFile(t, dir, "alice", meetings(day(5), 3))

	t.Run("scores requested users", func(t *testing.T) {
		cfg := execConfig(t, dir, "alice")
		require.NoError(t, ExecuteScore(context.Background(), cfg, nil))

		results := readOutput[[]schema.ScoreResult](t, cfg)
		require.Len(t, results, 1)
		assert.Equal(t, "alice", results[0].UserID)
		assert.Equal(t, schema.Score(1.2), results[0].FragmentationScore)
		assert.Equal(t, 3, results[0].ActivitiesCount)
	})

	t.Run("lists users when none requested", func(t *testing.T) {
		cfg := execConfig(t, dir)
		require.NoError(t, ExecuteScore(context.Background(), cfg, nil))
		assert.Len(t, readOutput[[]schema.ScoreResult](t, cfg), 1)
	})

	t.Run("missing user is reported but others print", func(t *testing.T) {
		cfg := execConfig(t, dir, "alice", "ghost")
		require.NoError(t, ExecuteScore(context.Background(), cfg, nil))
		assert.Len(t, readOutput[[]schema.ScoreResult](t, cfg), 1)
	})

	t.Run("no user scored", func(t *testing.T) {
		cfg := execConfig(t, dir, "ghost")
		err := ExecuteScore(context.Background(), cfg, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 1 users could not be scored")
	})

	t.Run("data directory required", func(t *testing.T) {
		cfg := execConfig(t, "", "alice")
		assert.True(t, contract.IsInvalidInput(ExecuteScore(context.Background(), cfg, nil)))
	})
}

func trendActivities() []schema.ActivityItem {
	var items []schema.ActivityItem
	items = append(items, meetings(day(1), 2)...)
	items = append(items, meetings(day(3), 3)...)
	items = append(items, meetings(day(5), 1)...)
	return items
}

func TestExecuteTrend(t *testing.T) {
	dir := t.TempDir()
	writeUserFile(t, dir, "alice", trendActivities())

	cfg := execConfig(t, dir, "alice")
	require.NoError(t, ExecuteTrend(context.Background(), cfg, nil))

	trend := readOutput[schema.TrendResult](t, cfg)
	assert.Equal(t, "alice", trend.UserID)
	require.Len(t, trend.Scores, 5)
	assert.Equal(t, schema.Score(1.2), trend.Scores[2].Score)
	assert.Equal(t, schema.Score(0), trend.Scores[1].Score)
	require.NotNil(t, trend.Average)
	assert.Equal(t, schema.Score(0.5), *trend.Average)
	assert.NotNil(t, trend.Anomaly)
	assert.Len(t, trend.RollingAverages, 5)
}

func TestExecuteTrendRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	writeUserFile(t, dir, "alice", trendActivities())

	store := &iocache.MockHistoryStore{}
	store.On("BeginRun", "trend", mock.Anything, mock.Anything).Return(int64(7), nil)
	store.On("RecordDailyScore", int64(7), "alice", mock.Anything).Return(nil)
	store.On("EndRun", int64(7), mock.Anything, 5).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)
	mgr.On("GetHistoryStore").Return(store)

	cfg := execConfig(t, dir, "alice")
	cfg.RecordHistory = true
	require.NoError(t, ExecuteTrend(context.Background(), cfg, mgr))

	store.AssertNumberOfCalls(t, "RecordDailyScore", 5)
	store.AssertCalled(t, "RecordDailyScore", int64(7), "alice", mock.MatchedBy(func(s schema.HistoricalScore) bool {
		return s.Date.Equal(day(3)) && s.Score == 1.2
	}))
	store.AssertExpectations(t)
}

func TestExecuteTrendWithoutRecording(t *testing.T) {
	dir := t.TempDir()
	writeUserFile(t, dir, "alice", trendActivities())

	store := &iocache.MockHistoryStore{}
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetActivityStore").Return(nil)
	mgr.On("GetHistoryStore").Return(store)

	cfg := execConfig(t, dir, "alice")
	require.NoError(t, ExecuteTrend(context.Background(), cfg, mgr))
	store.AssertNotCalled(t, "BeginRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteTrendRequiresUser(t *testing.T) {
	cfg := execConfig(t, t.TempDir())
	assert.True(t, contract.IsInvalidInput(ExecuteTrend(context.Background(), cfg, nil)))
}

func TestExecuteTeam(t *testing.T) {
	dir := t.TempDir()
	writeUserFile(t, dir, "alice", trendActivities())
	writeUserFile(t, dir, "bob", meetings(day(3), 1))

	cfg := execConfig(t, dir)
	require.NoError(t, ExecuteTeam(context.Background(), cfg, nil))

	team := readOutput[schema.TeamTrendResult](t, cfg)
	require.Len(t, team.Members, 2)
	assert.Equal(t, "alice", team.Members[0].UserID)
	assert.Equal(t, "bob", team.Members[1].UserID)
	require.Len(t, team.Daily, 5)
	assert.Equal(t, schema.Score(0.8), team.Daily[2].Average)
	assert.Equal(t, 2, team.Daily[2].MemberCount)
}

func TestExecuteAnomaly(t *testing.T) {
	cfg := execConfig(t, "")
	series := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 10}
	require.NoError(t, ExecuteAnomaly(context.Background(), cfg, series))

	result := readOutput[schema.AnomalyResult](t, cfg)
	assert.True(t, result.IsAnomaly)
	require.NotNil(t, result.AnomalyIndex)
	assert.Equal(t, 9, *result.AnomalyIndex)
	assert.Equal(t, 3.0, result.StdDev)

	assert.True(t, contract.IsInvalidInput(ExecuteAnomaly(context.Background(), cfg, nil)))
}

func TestExecuteCheckPasses(t *testing.T) {
	dir := t.TempDir()
	writeUserFile(t, dir, "alice", meetings(day(5), 2))

	cfg := execConfig(t, dir, "alice")
	require.NoError(t, ExecuteCheck(context.Background(), cfg, nil))

	result := readOutput[schema.CheckResult](t, cfg)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
}

func TestExecuteCheckFails(t *testing.T) {
	dir := t.TempDir()
	writeUserFile(t, dir, "alice", meetings(day(5), 6))

	cfg := execConfig(t, dir, "alice")
	cfg.CheckThreshold = 2.0
	err := ExecuteCheck(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrCheckFailed)

	// The report is still written for the failing gate.
	result := readOutput[schema.CheckResult](t, cfg)
	assert.False(t, result.Passed)
	assert.Len(t, result.Violations, 1)
}

func TestExecuteWeights(t *testing.T) {
	cfg := execConfig(t, "")
	cfg.Weights.Meeting = 0.9
	require.NoError(t, ExecuteWeights(context.Background(), cfg, nil))

	rows := readOutput[[]map[string]any](t, cfg)
	require.Len(t, rows, len(schema.AllFactors))
	assert.Equal(t, "meetings", rows[1]["factor"])
	assert.InDelta(t, 0.9, rows[1]["weight"], 1e-9)
}

func TestExecuteHistoryShow(t *testing.T) {
	t.Run("rebuilds trend from the store", func(t *testing.T) {
		store := &iocache.MockHistoryStore{}
		store.On("GetUserHistory", "alice", date(1), date(5)).Return([]schema.HistoricalScore{
			{Date: date(2), Score: 1.0, RiskLevel: schema.LowRisk},
			{Date: date(4), Score: 2.0, RiskLevel: schema.ModerateRisk},
		}, nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(store)

		cfg := execConfig(t, "", "alice")
		require.NoError(t, ExecuteHistoryShow(context.Background(), cfg, mgr))

		trend := readOutput[schema.TrendResult](t, cfg)
		require.Len(t, trend.Scores, 2)
		require.NotNil(t, trend.Average)
		assert.Equal(t, schema.Score(1.5), *trend.Average)
		assert.Equal(t, "3 day(s) in range have no recorded score", trend.Warning)
	})

	t.Run("requires a history store", func(t *testing.T) {
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(nil)
		cfg := execConfig(t, "", "alice")
		assert.True(t, contract.IsInvalidInput(ExecuteHistoryShow(context.Background(), cfg, mgr)))
	})
}
