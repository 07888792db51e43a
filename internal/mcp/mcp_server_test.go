package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	mcp_internal "github.com/huangsam/fragmeter/internal/mcp"
	"github.com/huangsam/fragmeter/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleActivities = `[
	{"type": "teams_meeting", "timestamp": "2024-06-03T09:00:00Z", "source": "teams"},
	{"type": "jira_issue_update", "timestamp": "2024-06-03T10:00:00Z", "source": "jira"}
]`

func testServerConfig(dataDir string) *contract.Config {
	return &contract.Config{
		DataDir:          dataDir,
		Location:         time.UTC,
		Now:              time.Now().UTC(),
		Workers:          2,
		WindowDays:       1,
		RollingWindow:    schema.DefaultRollingWindow,
		AnomalyThreshold: schema.DefaultAnomalyThreshold,
		Weights:          schema.DefaultWeights(),
	}
}

func callTool(t *testing.T, cfg *contract.Config, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(cfg, nil)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	cfg := testServerConfig(t.TempDir())

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		contains string
	}{
		{
			name:     "score_activities missing user",
			tool:     "score_activities",
			args:     map[string]any{"activities": sampleActivities},
			contains: "user id is required",
		},
		{
			name:     "score_activities malformed json",
			tool:     "score_activities",
			args:     map[string]any{"user_id": "alice", "activities": "{not json"},
			contains: "malformed activity JSON",
		},
		{
			name:     "score_activities invalid source",
			tool:     "score_activities",
			args:     map[string]any{"user_id": "alice", "activities": `[{"type":"x","timestamp":"2024-06-03T09:00:00Z","source":"slack"}]`},
			contains: "invalid source",
		},
		{
			name:     "score_activities zero window",
			tool:     "score_activities",
			args:     map[string]any{"user_id": "alice", "activities": sampleActivities, "window_days": 0.0},
			contains: "window days must be at least 1",
		},
		{
			name:     "get_trend start after end",
			tool:     "get_trend",
			args:     map[string]any{"user_id": "alice", "start": "2 days ago", "end": "5 days ago"},
			contains: "cannot be after end date",
		},
		{
			name:     "detect_anomaly not an array",
			tool:     "detect_anomaly",
			args:     map[string]any{"series": "1,2,3"},
			contains: "invalid series",
		},
		{
			name:     "detect_anomaly empty series",
			tool:     "detect_anomaly",
			args:     map[string]any{"series": "[]"},
			contains: "needs at least one value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, cfg, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.contains)
		})
	}
}

func TestMCPScoreActivities(t *testing.T) {
	res := callTool(t, testServerConfig(""), "score_activities", map[string]any{
		"user_id":    "alice",
		"activities": sampleActivities,
	})
	require.False(t, res.IsError, resultText(res))

	var result schema.ScoreResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &result))
	assert.Equal(t, "alice", result.UserID)
	// meeting 0.4 + issue update 1.0 + source switch 0.25
	assert.Equal(t, schema.Score(1.7), result.FragmentationScore)
	assert.Equal(t, 2, result.ActivitiesCount)
}

func TestMCPDetectAnomaly(t *testing.T) {
	res := callTool(t, testServerConfig(""), "detect_anomaly", map[string]any{
		"series":    "[0, 0, 0, 0, 0, 0, 0, 0, 0, 10]",
		"threshold": 2.0,
	})
	require.False(t, res.IsError, resultText(res))

	var result schema.AnomalyResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &result))
	assert.True(t, result.IsAnomaly)
	require.NotNil(t, result.AnomalyIndex)
	assert.Equal(t, 9, *result.AnomalyIndex)
}

func TestMCPGetTrendAndUsers(t *testing.T) {
	dir := t.TempDir()
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	items := []schema.ActivityItem{
		{Type: "teams_meeting", Timestamp: time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 12, 0, 0, 0, time.UTC), Source: schema.TeamsSource},
	}
	data, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.json"), data, 0o644))

	cfg := testServerConfig(dir)

	res := callTool(t, cfg, "get_trend", map[string]any{"user_id": "alice", "start": "2 days ago"})
	require.False(t, res.IsError, resultText(res))
	var trend schema.TrendResult
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &trend))
	assert.Equal(t, "alice", trend.UserID)
	assert.Len(t, trend.Scores, 3)

	res = callTool(t, cfg, "list_users", nil)
	require.False(t, res.IsError, resultText(res))
	assert.JSONEq(t, `["alice"]`, resultText(res))
}
