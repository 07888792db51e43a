// Package core has core logic for scoring, trends and gating.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/outwriter"
	"github.com/huangsam/fragmeter/internal/source"
	"github.com/huangsam/fragmeter/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteScore scores each user over the configured window and prints the results.
// It serves as the main entry point for the 'score' command.
func ExecuteScore(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	src, err := source.New(cfg, mgr)
	if err != nil {
		return err
	}
	users, err := resolveUsers(ctx, cfg.Users, src)
	if err != nil {
		return err
	}

	results, failures, err := ScoreUsers(ctx, cfg, src, NewScorer(cfg), users)
	if err != nil {
		return err
	}
	if warning := memberFailureWarning(len(users), failures); warning != "" {
		if len(results) == 0 {
			return errors.New(warning)
		}
		contract.LogWarn("Partial data", errors.New(warning))
	}
	return outwriter.NewOutWriter(cfg).WriteScores(results, time.Since(start))
}

// ExecuteTrend builds the daily trend of each user, flags anomalies and prints the series.
// It serves as the main entry point for the 'trend' command.
func ExecuteTrend(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	trends, err := GetTrendResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter(cfg).WriteTrends(trends, time.Since(start))
}

// GetTrendResults builds the trend of every configured user with its anomaly verdict.
// Daily scores are recorded to the history store when recording is enabled.
func GetTrendResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.TrendResult, error) {
	src, err := source.New(cfg, mgr)
	if err != nil {
		return nil, err
	}
	if len(cfg.Users) == 0 {
		return nil, contract.NewInvalidInputf("trend requires at least one user")
	}

	ctx, finishRun := beginRun(ctx, cfg, mgr, "trend")
	scorer := NewScorer(cfg)
	trends := make([]schema.TrendResult, 0, len(cfg.Users))
	total := 0
	defer func() { finishRun(total) }()

	for _, userID := range cfg.Users {
		trend, err := BuildTrend(ctx, cfg, src, scorer, userID)
		if err != nil {
			return nil, err
		}
		attachAnomaly(trend, cfg.AnomalyThreshold)
		total += len(trend.Scores)
		trends = append(trends, *trend)
	}
	return trends, nil
}

// ExecuteTeam builds the team trend across users and prints the daily averages.
// It serves as the main entry point for the 'team' command.
func ExecuteTeam(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	src, err := source.New(cfg, mgr)
	if err != nil {
		return err
	}
	users, err := resolveUsers(ctx, cfg.Users, src)
	if err != nil {
		return err
	}

	ctx, finishRun := beginRun(ctx, cfg, mgr, "team")
	result, err := BuildTeamTrend(ctx, cfg, src, NewScorer(cfg), users)
	if err != nil {
		finishRun(0)
		return err
	}
	total := 0
	for i := range result.Members {
		attachAnomaly(&result.Members[i], cfg.AnomalyThreshold)
		total += len(result.Members[i].Scores)
	}
	finishRun(total)

	if result.Warning != "" {
		contract.LogWarn("Partial data", errors.New(result.Warning))
	}
	return outwriter.NewOutWriter(cfg).WriteTeam(result, time.Since(start))
}

// ExecuteAnomaly runs the detector over a literal series and prints its verdict.
// This does not read any activity data.
func ExecuteAnomaly(_ context.Context, cfg *contract.Config, series []float64) error {
	result, err := algo.DetectAnomaly(series, cfg.AnomalyThreshold)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter(cfg).WriteAnomaly(series, result)
}

// ErrCheckFailed is returned by ExecuteCheck when any user violates the gate.
var ErrCheckFailed = errors.New("one or more users exceed the check threshold")

// ExecuteCheck gates the users against the check threshold for CI/CD use.
// The report is always written before ErrCheckFailed is returned.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	src, err := source.New(cfg, mgr)
	if err != nil {
		return err
	}

	result, err := RunCheck(ctx, cfg, src, NewScorer(cfg))
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter(cfg).WriteCheck(result, time.Since(start)); err != nil {
		return err
	}
	if !result.Passed {
		return ErrCheckFailed
	}
	return nil
}

// ExecuteWeights displays the scoring factors and their active weights.
// This is a static display that does not require activity data.
func ExecuteWeights(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return outwriter.NewOutWriter(cfg).WriteWeights(cfg.Weights)
}

// ExecuteHistoryShow prints the recorded trend of each user from the history store.
func ExecuteHistoryShow(_ context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	var store contract.HistoryStore
	if mgr != nil {
		store = mgr.GetHistoryStore()
	}
	if store == nil {
		return contract.NewInvalidInputf("history tracking is not configured (use --history-backend)")
	}
	if len(cfg.Users) == 0 {
		return contract.NewInvalidInputf("history show requires at least one user")
	}

	trends := make([]schema.TrendResult, 0, len(cfg.Users))
	for _, userID := range cfg.Users {
		trend, err := trendFromHistory(cfg, store, userID)
		if err != nil {
			return err
		}
		attachAnomaly(trend, cfg.AnomalyThreshold)
		trends = append(trends, *trend)
	}
	return outwriter.NewOutWriter(cfg).WriteTrends(trends, time.Since(start))
}

// attachAnomaly runs the detector over the trend when it has scored days.
func attachAnomaly(trend *schema.TrendResult, threshold float64) {
	if len(trend.Scores) == 0 {
		return
	}
	anomaly, err := DetectTrendAnomaly(trend, threshold)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Anomaly detection failed for %s", trend.UserID), err)
		return
	}
	trend.Anomaly = anomaly
}
