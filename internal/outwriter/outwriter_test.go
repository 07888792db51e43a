package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

var (
	generated = time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)
	june1, _  = schema.ParseDate("2024-06-01", time.UTC)
	june2, _  = schema.ParseDate("2024-06-02", time.UTC)
)

func testWriter(output schema.OutputMode) (*OutWriter, *bytes.Buffer, *bytes.Buffer) {
	cfg := &contract.Config{
		Output:       output,
		Precision:    1,
		Width:        200,
		Workers:      2,
		WindowDays:   1,
		CacheBackend: schema.SQLiteBackend,
	}
	var stdout, stderr bytes.Buffer
	ow := NewOutWriter(cfg).WithStreams(&stdout, &stderr)
	ow.now = func() time.Time { return generated }
	return ow, &stdout, &stderr
}

func sampleScores() []schema.ScoreResult {
	return []schema.ScoreResult{
		{
			UserID:             "alice",
			FragmentationScore: 1.2,
			RiskLevel:          schema.LowRisk,
			Summary:            "A few meetings.",
			ActivitiesCount:    3,
			WindowDays:         1,
			Breakdown:          schema.Breakdown{Meetings: 3},
		},
		{
			UserID:             "bob",
			FragmentationScore: 3.0,
			RiskLevel:          schema.ModerateRisk,
			Summary:            "Frequent switching, between tools",
			ActivitiesCount:    4,
			WindowDays:         1,
			Breakdown:          schema.Breakdown{Meetings: 1, IssueUpdates: 2, SourceSwitches: 2, TypeSwitches: 1},
		},
	}
}

func sampleTrend() schema.TrendResult {
	avg := schema.Score(2.1)
	idx := 1
	return schema.TrendResult{
		UserID:    "alice",
		StartDate: june1,
		EndDate:   june2,
		Scores: []schema.HistoricalScore{
			{Date: june1, Score: 1.2, RiskLevel: schema.LowRisk, Summary: "quiet", ActivitiesCount: 3},
			{Date: june2, Score: 3.0, RiskLevel: schema.ModerateRisk, Summary: "busy", ActivitiesCount: 4},
		},
		Average: &avg,
		RollingAverages: []schema.RollingPoint{
			{Date: june1, Average: 1.2, Samples: 1},
			{Date: june2, Average: 2.1, Samples: 2},
		},
		Warning: "1 of 3 days could not be scored: 2024-06-03: offline",
		Anomaly: &schema.AnomalyResult{IsAnomaly: true, AnomalyIndex: &idx, Date: &june2, Message: "Spike detected"},
	}
}

func TestWriteScores(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.JSONOut)
		require.NoError(t, ow.WriteScores(sampleScores(), time.Second))

		var got []map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "bob", got[1]["userId"])
		assert.InDelta(t, 3.0, got[1]["fragmentationScore"], 1e-9)
	})

	t.Run("csv", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.CSVOut)
		require.NoError(t, ow.WriteScores(sampleScores(), time.Second))

		records, err := csv.NewReader(stdout).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "user_id", records[0][0])
		assert.Equal(t, []string{"bob", "3.0", "Moderate"}, records[2][:3])
		assert.Equal(t, "Frequent switching, between tools", records[2][12])
	})

	t.Run("text", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.TextOut)
		require.NoError(t, ow.WriteScores(sampleScores(), time.Second))

		out := stdout.String()
		assert.Contains(t, out, "alice")
		assert.Contains(t, out, "Moderate")
		assert.Contains(t, out, "2/1")
		assert.Contains(t, out, "Scored 2 users over a 1 day window")
	})

	t.Run("precision", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.CSVOut)
		ow.cfg.Precision = 2
		require.NoError(t, ow.WriteScores(sampleScores()[:1], time.Second))
		assert.Contains(t, stdout.String(), "alice,1.20,Low")
	})

	t.Run("output file", func(t *testing.T) {
		ow, stdout, stderr := testWriter(schema.JSONOut)
		ow.cfg.OutputFile = filepath.Join(t.TempDir(), "scores.json")
		require.NoError(t, ow.WriteScores(sampleScores(), time.Second))

		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Wrote JSON to "+ow.cfg.OutputFile)
		data, err := os.ReadFile(ow.cfg.OutputFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"userId": "alice"`)
	})

	t.Run("parquet", func(t *testing.T) {
		ow, _, stderr := testWriter(schema.ParquetOut)
		ow.cfg.OutputFile = filepath.Join(t.TempDir(), "scores.parquet")
		require.NoError(t, ow.WriteScores(sampleScores(), time.Second))

		info, err := os.Stat(ow.cfg.OutputFile)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
		assert.Contains(t, stderr.String(), "Wrote Parquet")
	})
}

func TestWriteTrends(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.TextOut)
		require.NoError(t, ow.WriteTrends([]schema.TrendResult{sampleTrend()}, time.Second))

		out := stdout.String()
		assert.Contains(t, out, "Fragmentation trend for alice (2024-06-01 to 2024-06-02)")
		assert.Contains(t, out, "Average: 2.1 over 2 scored days")
		assert.Contains(t, out, "Warning: 1 of 3 days could not be scored")
		assert.Contains(t, out, "Anomaly on 2024-06-02: Spike detected")
	})

	t.Run("json single trend is an object", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.JSONOut)
		require.NoError(t, ow.WriteTrends([]schema.TrendResult{sampleTrend()}, time.Second))
		assert.True(t, strings.HasPrefix(strings.TrimSpace(stdout.String()), "{"))
		assert.Contains(t, stdout.String(), `"date": "2024-06-02"`)
	})

	t.Run("csv", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.CSVOut)
		require.NoError(t, ow.WriteTrends([]schema.TrendResult{sampleTrend()}, time.Second))

		records, err := csv.NewReader(stdout).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"alice", "2024-06-02", "3.0", "Moderate", "4", "2.1", "busy"}, records[2])
	})

	t.Run("no average", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.TextOut)
		empty := schema.TrendResult{UserID: "carol", StartDate: june1, EndDate: june1}
		require.NoError(t, ow.WriteTrends([]schema.TrendResult{empty}, time.Second))
		assert.Contains(t, stdout.String(), "Average: n/a over 0 scored days")
	})
}

func TestWriteTeam(t *testing.T) {
	avg := schema.Score(1.5)
	team := &schema.TeamTrendResult{
		StartDate: june1,
		EndDate:   june2,
		Members:   []schema.TrendResult{sampleTrend()},
		Daily: []schema.TeamDayAverage{
			{Date: june1, Average: 1.2, MemberCount: 2},
			{Date: june2, Average: 3.6, MemberCount: 1},
		},
		Average: &avg,
		Warning: "1 of 2 users could not be scored: bob: no day could be scored",
	}

	t.Run("text", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.TextOut)
		require.NoError(t, ow.WriteTeam(team, time.Second))
		out := stdout.String()
		assert.Contains(t, out, "Team fragmentation (2024-06-01 to 2024-06-02)")
		assert.Contains(t, out, "High")
		assert.Contains(t, out, "Team average: 1.5 across 1 members")
		assert.Contains(t, out, "bob: no day could be scored")
	})

	t.Run("csv", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.CSVOut)
		require.NoError(t, ow.WriteTeam(team, time.Second))
		records, err := csv.NewReader(stdout).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-06-02", "3.6", "High", "1"}, records[2])
	})
}

func TestWriteAnomaly(t *testing.T) {
	idx := 8
	series := []float64{0, 0, 0, 0, 0, 0, 0, 0, 5, 5}
	result := schema.AnomalyResult{IsAnomaly: true, AnomalyIndex: &idx, Mean: 1, StdDev: 2, Threshold: 3, Message: "Spike detected"}

	t.Run("text", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.TextOut)
		require.NoError(t, ow.WriteAnomaly(series, result))
		out := stdout.String()
		assert.Contains(t, out, "Threshold:  3")
		assert.Contains(t, out, "Index:      8")
		assert.Contains(t, out, "Anomaly: Spike detected")
	})

	t.Run("csv flags the index", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.CSVOut)
		require.NoError(t, ow.WriteAnomaly(series, result))
		records, err := csv.NewReader(stdout).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 11)
		assert.Equal(t, "true", records[9][2])
		assert.Equal(t, "false", records[10][2])
	})

	t.Run("parquet unsupported", func(t *testing.T) {
		ow, _, _ := testWriter(schema.ParquetOut)
		assert.Error(t, ow.WriteAnomaly(series, result))
	})
}

func TestWriteCheck(t *testing.T) {
	scores := sampleScores()

	t.Run("passed", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.TextOut)
		result := &schema.CheckResult{Threshold: 3.5, WindowDays: 1, Results: scores, Passed: true}
		require.NoError(t, ow.WriteCheck(result, time.Second))
		out := stdout.String()
		assert.Contains(t, out, "All users are below the fragmentation threshold")
		assert.Contains(t, out, "max=3.0 (bob), avg=2.1")
	})

	t.Run("failed", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.TextOut)
		result := &schema.CheckResult{
			Threshold:  3.0,
			WindowDays: 1,
			Results:    scores,
			Violations: []schema.CheckViolation{{UserID: "bob", Score: 3.0, RiskLevel: schema.ModerateRisk}},
			Failures:   []schema.MemberFailure{{UserID: "carol", Error: "offline"}},
		}
		require.NoError(t, ow.WriteCheck(result, time.Second))
		out := stdout.String()
		assert.Contains(t, out, "1 violation(s), 1 unscored user(s)")
		assert.Contains(t, out, "bob (score: 3.0 >= threshold: 3.0, Moderate)")
		assert.Contains(t, out, "carol could not be scored: offline")
	})

	t.Run("csv", func(t *testing.T) {
		ow, stdout, _ := testWriter(schema.CSVOut)
		result := &schema.CheckResult{
			Threshold:  3.0,
			Results:    scores,
			Violations: []schema.CheckViolation{{UserID: "bob", Score: 3.0}},
		}
		require.NoError(t, ow.WriteCheck(result, time.Second))
		records, err := csv.NewReader(stdout).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "false", records[1][4])
		assert.Equal(t, "true", records[2][4])
	})
}

func TestWriteWeights(t *testing.T) {
	ow, stdout, _ := testWriter(schema.TextOut)
	require.NoError(t, ow.WriteWeights(schema.DefaultWeights()))
	out := stdout.String()
	assert.Contains(t, out, "issue_updates    +1.00")
	assert.Contains(t, out, "more than 2 distinct sources")
	assert.Contains(t, out, "Low < 2.0 <= Moderate < 3.5 <= High")

	ow, stdout, _ = testWriter(schema.JSONOut)
	require.NoError(t, ow.WriteWeights(schema.DefaultWeights()))
	var rows []WeightRow
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &rows))
	require.Len(t, rows, len(schema.AllFactors))
	for i, f := range schema.AllFactors {
		assert.Equal(t, f, rows[i].Factor)
	}
}

func TestGetMaxTableSummaryWidth(t *testing.T) {
	assert.Equal(t, 20, GetMaxTableSummaryWidth(&contract.Config{Width: 60}, 40))
	assert.Equal(t, 40, GetMaxTableSummaryWidth(&contract.Config{Width: 100}, 40))
	assert.Equal(t, 90, GetMaxTableSummaryWidth(&contract.Config{Width: 400}, 40))
}
