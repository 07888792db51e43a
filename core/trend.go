package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// dayOutcome is the result of scoring one window.
type dayOutcome struct {
	index int
	score schema.HistoricalScore
	err   error
}

// BuildTrend scores every day of cfg.StartDate..cfg.EndDate for one user.
//
// A day whose activities cannot be fetched or scored is left out of the series and
// recorded as a failure; the remaining days are still returned. When ctx is cancelled,
// days not yet started are recorded as failures and ctx.Err() is returned together with
// the partial result.
func BuildTrend(ctx context.Context, cfg *contract.Config, src contract.ActivitySource, scorer Scorer, userID string) (*schema.TrendResult, error) {
	userID, err := contract.NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	windows, err := DayWindows(cfg.StartDate, cfg.EndDate, cfg.Now)
	if err != nil {
		return nil, err
	}

	outcomes := scoreDays(ctx, cfg, src, scorer, userID, windows)
	result := assembleTrend(cfg, userID, windows, outcomes)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// scoreDays processes all windows in parallel using a worker pool.
// Outcomes are slotted by window index so the caller sees them oldest first.
func scoreDays(ctx context.Context, cfg *contract.Config, src contract.ActivitySource, scorer Scorer, userID string, windows []Window) []dayOutcome {
	dayCh := make(chan int, len(windows))
	outcomeCh := make(chan dayOutcome, len(windows))
	var wg sync.WaitGroup

	// Start worker pool
	for range workerCount(cfg.Workers, len(windows)) {
		wg.Go(func() {
			for i := range dayCh {
				outcomeCh <- scoreDay(ctx, src, scorer, userID, i, windows[i])
			}
		})
	}

	// Send days to worker channel
	for i := range windows {
		dayCh <- i
	}
	close(dayCh)

	// Wait for all workers to finish processing
	wg.Wait()
	close(outcomeCh)

	outcomes := make([]dayOutcome, len(windows))
	for o := range outcomeCh {
		outcomes[o.index] = o
	}
	return outcomes
}

// scoreDay fetches and scores the activities of a single day.
func scoreDay(ctx context.Context, src contract.ActivitySource, scorer Scorer, userID string, index int, w Window) dayOutcome {
	if err := ctx.Err(); err != nil {
		return dayOutcome{index: index, err: err}
	}

	items, err := src.FetchActivities(ctx, userID, w.Start, w.End)
	if err != nil {
		return dayOutcome{index: index, err: fmt.Errorf("fetch activities: %w", err)}
	}
	items = schema.FilterWindow(items, w.Start, w.End, w.Intraday)

	result, err := scorer.Score(ctx, userID, items, 1)
	if err != nil {
		return dayOutcome{index: index, err: fmt.Errorf("score activities: %w", err)}
	}

	score := schema.HistoricalScore{
		Date:            w.Date,
		Score:           result.FragmentationScore,
		RiskLevel:       result.RiskLevel,
		Summary:         result.Summary,
		ActivitiesCount: result.ActivitiesCount,
	}
	recordDailyScore(ctx, userID, score)
	return dayOutcome{index: index, score: score}
}

// recordDailyScore stores a day's score when history tracking is active.
func recordDailyScore(ctx context.Context, userID string, score schema.HistoricalScore) {
	runID, ok := getRunID(ctx)
	if !ok {
		return
	}
	store := historyStoreFromContext(ctx)
	if store == nil {
		return
	}
	if err := store.RecordDailyScore(runID, userID, score); err != nil {
		contract.LogWarn(fmt.Sprintf("History tracking failed for %s on %s", userID, score.Date), err)
	}
}

// assembleTrend orders outcomes into a trend and computes its averages.
func assembleTrend(cfg *contract.Config, userID string, windows []Window, outcomes []dayOutcome) *schema.TrendResult {
	result := &schema.TrendResult{
		UserID:    userID,
		StartDate: windows[0].Date,
		EndDate:   windows[len(windows)-1].Date,
		Scores:    make([]schema.HistoricalScore, 0, len(windows)),
	}

	failures := make(map[string]error)
	for i, o := range outcomes {
		if o.err != nil {
			day := windows[i].Date
			result.Failures = append(result.Failures, schema.DayFailure{Date: day, Error: o.err.Error()})
			failures[day.String()] = o.err
			continue
		}
		result.Scores = append(result.Scores, o.score)
	}

	series := result.Series()
	result.Average = averageScore(series)
	result.RollingAverages = rollingAverages(result.Scores, cfg.RollingWindow)

	if len(result.Failures) > 0 {
		result.Warning = partialDataWarning("days", len(windows), failures, dayFailureLines(result.Failures)).Msg
	}
	return result
}

// averageScore returns the one-decimal mean of values, or nil when there are none.
func averageScore(values []float64) *schema.Score {
	if len(values) == 0 {
		return nil
	}
	mean, _ := algo.MeanStdDev(values)
	avg := schema.Score(algo.Round1(mean))
	return &avg
}

// rollingAverages computes the trailing mean over at most window entries, ending at each entry.
func rollingAverages(scores []schema.HistoricalScore, window int) []schema.RollingPoint {
	if len(scores) == 0 {
		return nil
	}
	if window < 1 {
		window = schema.DefaultRollingWindow
	}

	points := make([]schema.RollingPoint, len(scores))
	var sum float64
	for i, s := range scores {
		sum += s.Score.Float()
		if i >= window {
			sum -= scores[i-window].Score.Float()
		}
		samples := min(i+1, window)
		points[i] = schema.RollingPoint{
			Date:    s.Date,
			Average: schema.Score(algo.Round1(sum / float64(samples))),
			Samples: samples,
		}
	}
	return points
}

// partialDataWarning consolidates unit failures into a single PartialData error.
func partialDataWarning(unit string, total int, failures map[string]error, lines []string) *contract.Error {
	msg := fmt.Sprintf("%d of %d %s could not be scored: %s", len(failures), total, unit, strings.Join(lines, "; "))
	return contract.NewPartialData(msg, failures)
}

func dayFailureLines(failures []schema.DayFailure) []string {
	lines := make([]string, len(failures))
	for i, f := range failures {
		lines[i] = fmt.Sprintf("%s: %s", f.Date, f.Error)
	}
	return lines
}

// workerCount bounds the pool size by the number of jobs.
func workerCount(workers, jobs int) int {
	return max(1, min(workers, jobs))
}
