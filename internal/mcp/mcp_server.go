// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the fragmeter MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Fragmeter Scoring Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: score_activities ---
	s.AddTool(mcp.NewTool("score_activities",
		mcp.WithDescription("Compute the cognitive fragmentation score of one user's activities over a window."),
		mcp.WithString("user_id", mcp.Description("Identifier stamped on the result."), mcp.Required()),
		mcp.WithString("activities", mcp.Description("JSON array of activities with type, timestamp, source and optional details, durationMinutes, jiraStatusCategoryKey."), mcp.Required()),
		mcp.WithNumber("window_days", mcp.Description("Length of the scoring window in days. Defaults to 1.")),
	), h.handleScoreActivities)

	// --- 2. Tool: get_trend ---
	s.AddTool(mcp.NewTool("get_trend",
		mcp.WithDescription("Score every day of a date range for one user from the configured data directory."),
		mcp.WithString("user_id", mcp.Description("User whose activity file is read."), mcp.Required()),
		mcp.WithString("start", mcp.Description("First day as yyyy-MM-dd or 'N days ago'. Defaults to 7 days before end.")),
		mcp.WithString("end", mcp.Description("Last day as yyyy-MM-dd or 'N days ago'. Defaults to today.")),
	), h.handleGetTrend)

	// --- 3. Tool: detect_anomaly ---
	s.AddTool(mcp.NewTool("detect_anomaly",
		mcp.WithDescription("Flag the first value of a score series above mean + threshold * standard deviation."),
		mcp.WithString("series", mcp.Description("JSON array of numbers, e.g. [1.2, 0.8, 4.5]."), mcp.Required()),
		mcp.WithNumber("threshold", mcp.Description("Number of standard deviations above the mean. Defaults to 2.")),
	), h.handleDetectAnomaly)

	// --- 4. Tool: list_users ---
	s.AddTool(mcp.NewTool("list_users",
		mcp.WithDescription("List the users that have activity data in the configured data directory."),
	), h.handleListUsers)

	return s
}

// StartMCPServer starts the fragmeter MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
