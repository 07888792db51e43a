package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/source"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

func (h *toolHandler) handleScoreActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	userID, err := contract.NormalizeUserID(request.GetString("user_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	items, err := source.DecodeJSON(strings.NewReader(request.GetString("activities", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid activities: %v", err)), nil
	}

	result, err := core.NewScorer(cfg).Score(ctx, userID, items, request.GetInt("window_days", 1))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleGetTrend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	userID, err := contract.NormalizeUserID(request.GetString("user_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	cfg.Users = []string{userID}

	// Re-validate specifically for the requested range
	if err := contract.RevalidateRange(cfg, request.GetString("start", ""), request.GetString("end", ""), time.Now()); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid trend parameters: %v", err)), nil
	}

	trends, err := core.GetTrendResults(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("trend failed: %v", err)), nil
	}
	return jsonResult(trends[0])
}

func (h *toolHandler) handleDetectAnomaly(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var series []float64
	if err := json.Unmarshal([]byte(request.GetString("series", "")), &series); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid series: expected a JSON array of numbers: %v", err)), nil
	}

	result, err := algo.DetectAnomaly(series, request.GetFloat("threshold", h.baseCfg.AnomalyThreshold))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("anomaly detection failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleListUsers(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := source.New(h.baseCfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("source unavailable: %v", err)), nil
	}
	lister, ok := src.(contract.UserLister)
	if !ok {
		return mcp.NewToolResultError("activity source cannot list users"), nil
	}
	users, err := lister.Users(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing users failed: %v", err)), nil
	}
	if users == nil {
		users = []string{}
	}
	return jsonResult(users)
}

// jsonResult renders v as indented JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
