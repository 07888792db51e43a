package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// finishRunFunc completes a tracked run with the number of scores produced.
type finishRunFunc func(totalScores int)

// beginRun starts history tracking for command when recording is enabled and a history
// store is configured. The returned context carries the run so that daily scores are
// recorded as they are computed.
func beginRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, command string) (context.Context, finishRunFunc) {
	noop := func(int) {}
	if mgr == nil || !cfg.RecordHistory {
		return ctx, noop
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return ctx, noop
	}

	configParams := map[string]any{
		"users":          cfg.Users,
		"start":          cfg.StartDate.String(),
		"end":            cfg.EndDate.String(),
		"rolling_window": cfg.RollingWindow,
		"workers":        cfg.Workers,
		"weights":        cfg.Weights,
	}
	runID, err := store.BeginRun(command, time.Now(), configParams)
	if err != nil {
		contract.LogWarn("History tracking initialization failed", err)
		return ctx, noop
	}
	if runID <= 0 {
		return ctx, noop
	}

	ctx = withRunID(withHistoryStore(ctx, store), runID)
	return ctx, func(totalScores int) {
		if err := store.EndRun(runID, time.Now(), totalScores); err != nil {
			contract.LogWarn("Failed to finalize history tracking", err)
		}
	}
}

// trendFromHistory rebuilds a trend from previously recorded daily scores.
func trendFromHistory(cfg *contract.Config, store contract.HistoryStore, userID string) (*schema.TrendResult, error) {
	userID, err := contract.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	scores, err := store.GetUserHistory(userID, cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", userID, err)
	}

	result := &schema.TrendResult{
		UserID:    userID,
		StartDate: cfg.StartDate,
		EndDate:   cfg.EndDate,
		Scores:    scores,
	}
	if result.Scores == nil {
		result.Scores = []schema.HistoricalScore{}
	}
	result.Average = averageScore(result.Series())
	result.RollingAverages = rollingAverages(result.Scores, cfg.RollingWindow)
	if missing := contract.DaysBetween(cfg.StartDate, cfg.EndDate) + 1 - len(result.Scores); missing > 0 {
		result.Warning = fmt.Sprintf("%d day(s) in range have no recorded score", missing)
	}
	return result, nil
}
