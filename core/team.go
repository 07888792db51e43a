package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// memberOutcome is the trend of one team member.
type memberOutcome struct {
	userID string
	trend  *schema.TrendResult
	err    error
}

// BuildTeamTrend builds the trend of every user and averages them per day.
// A member that fails, or whose every day failed, is reported as a member failure and
// never cancels the other members.
func BuildTeamTrend(ctx context.Context, cfg *contract.Config, src contract.ActivitySource, scorer Scorer, users []string) (*schema.TeamTrendResult, error) {
	if len(users) == 0 {
		return nil, contract.NewInvalidInputf("at least one user is required")
	}
	if _, err := DayWindows(cfg.StartDate, cfg.EndDate, cfg.Now); err != nil {
		return nil, err
	}

	userCh := make(chan string, len(users))
	outcomeCh := make(chan memberOutcome, len(users))
	var wg sync.WaitGroup

	for range workerCount(cfg.Workers, len(users)) {
		wg.Go(func() {
			for u := range userCh {
				trend, err := BuildTrend(ctx, cfg, src, scorer, u)
				outcomeCh <- memberOutcome{userID: u, trend: trend, err: err}
			}
		})
	}
	for _, u := range users {
		userCh <- u
	}
	close(userCh)
	wg.Wait()
	close(outcomeCh)

	outcomes := make([]memberOutcome, 0, len(users))
	for o := range outcomeCh {
		outcomes = append(outcomes, o)
	}
	slices.SortFunc(outcomes, func(a, b memberOutcome) int { return cmp.Compare(a.userID, b.userID) })

	result := assembleTeam(cfg, outcomes)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// assembleTeam splits members from failures and computes the per-day averages.
func assembleTeam(cfg *contract.Config, outcomes []memberOutcome) *schema.TeamTrendResult {
	result := &schema.TeamTrendResult{
		StartDate: cfg.StartDate,
		EndDate:   cfg.EndDate,
		Members:   make([]schema.TrendResult, 0, len(outcomes)),
	}

	failures := make(map[string]error)
	var lines []string
	for _, o := range outcomes {
		err := o.err
		if err == nil && len(o.trend.Scores) == 0 {
			err = errors.New("no day could be scored")
		}
		if err != nil {
			result.Failures = append(result.Failures, schema.MemberFailure{UserID: o.userID, Error: err.Error()})
			failures[o.userID] = err
			lines = append(lines, fmt.Sprintf("%s: %v", o.userID, err))
			continue
		}
		result.Members = append(result.Members, *o.trend)
	}

	result.Daily = dailyAverages(result.Members)
	var all []float64
	for _, m := range result.Members {
		all = append(all, m.Series()...)
	}
	result.Average = averageScore(all)

	if len(failures) > 0 {
		result.Warning = partialDataWarning("users", len(outcomes), failures, lines).Msg
	}
	return result
}

// dailyAverages averages member scores per date, counting only members that have the date.
func dailyAverages(members []schema.TrendResult) []schema.TeamDayAverage {
	type acc struct {
		date  schema.Date
		sum   float64
		count int
	}
	byDay := make(map[string]*acc)
	for _, m := range members {
		for _, s := range m.Scores {
			key := s.Date.String()
			a, ok := byDay[key]
			if !ok {
				a = &acc{date: s.Date}
				byDay[key] = a
			}
			a.sum += s.Score.Float()
			a.count++
		}
	}

	daily := make([]schema.TeamDayAverage, 0, len(byDay))
	for _, a := range byDay {
		daily = append(daily, schema.TeamDayAverage{
			Date:        a.date,
			Average:     schema.Score(algo.Round1(a.sum / float64(a.count))),
			MemberCount: a.count,
		})
	}
	slices.SortFunc(daily, func(a, b schema.TeamDayAverage) int { return a.Date.Compare(b.Date.Time) })
	return daily
}
