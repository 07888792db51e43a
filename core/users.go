package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// userOutcome is the single-window score of one user.
type userOutcome struct {
	result schema.ScoreResult
	err    error
	userID string
}

// ScoreUsers scores each user over the configured score window.
// Users that cannot be scored are returned as failures; results and failures are sorted by user id.
func ScoreUsers(ctx context.Context, cfg *contract.Config, src contract.ActivitySource, scorer Scorer, users []string) ([]schema.ScoreResult, []schema.MemberFailure, error) {
	if len(users) == 0 {
		return nil, nil, contract.NewInvalidInputf("at least one user is required")
	}
	if cfg.WindowDays < 1 {
		return nil, nil, contract.NewInvalidInputf("window days must be at least 1, got %d", cfg.WindowDays)
	}
	start, end := cfg.ScoreWindow()

	userCh := make(chan string, len(users))
	outcomeCh := make(chan userOutcome, len(users))
	var wg sync.WaitGroup

	for range workerCount(cfg.Workers, len(users)) {
		wg.Go(func() {
			for u := range userCh {
				outcomeCh <- scoreUser(ctx, cfg, src, scorer, u, start, end)
			}
		})
	}
	for _, u := range users {
		userCh <- u
	}
	close(userCh)
	wg.Wait()
	close(outcomeCh)

	var results []schema.ScoreResult
	var failures []schema.MemberFailure
	for o := range outcomeCh {
		if o.err != nil {
			failures = append(failures, schema.MemberFailure{UserID: o.userID, Error: o.err.Error()})
			continue
		}
		results = append(results, o.result)
	}
	slices.SortFunc(results, func(a, b schema.ScoreResult) int { return cmp.Compare(a.UserID, b.UserID) })
	slices.SortFunc(failures, func(a, b schema.MemberFailure) int { return cmp.Compare(a.UserID, b.UserID) })

	if err := ctx.Err(); err != nil {
		return results, failures, err
	}
	return results, failures, nil
}

// scoreUser fetches and scores one user's activities in [start, end].
func scoreUser(ctx context.Context, cfg *contract.Config, src contract.ActivitySource, scorer Scorer, userID string, start, end time.Time) userOutcome {
	id, err := contract.NormalizeUserID(userID)
	if err != nil {
		return userOutcome{userID: userID, err: err}
	}
	if err := ctx.Err(); err != nil {
		return userOutcome{userID: id, err: err}
	}

	items, err := src.FetchActivities(ctx, id, start, end)
	if err != nil {
		return userOutcome{userID: id, err: fmt.Errorf("fetch activities: %w", err)}
	}
	items = schema.FilterWindow(items, start, end, true)

	result, err := scorer.Score(ctx, id, items, cfg.WindowDays)
	if err != nil {
		return userOutcome{userID: id, err: fmt.Errorf("score activities: %w", err)}
	}
	return userOutcome{userID: id, result: result}
}

// memberFailureWarning renders member failures as a consolidated PartialData message.
func memberFailureWarning(total int, failures []schema.MemberFailure) string {
	if len(failures) == 0 {
		return ""
	}
	errs := make(map[string]error, len(failures))
	lines := make([]string, len(failures))
	for i, f := range failures {
		errs[f.UserID] = errors.New(f.Error)
		lines[i] = fmt.Sprintf("%s: %s", f.UserID, f.Error)
	}
	return partialDataWarning("users", total, errs, lines).Msg
}

// resolveUsers returns the requested users, or every user the source knows about
// when none were requested.
func resolveUsers(ctx context.Context, requested []string, src contract.ActivitySource) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	lister, ok := src.(contract.UserLister)
	if !ok {
		return nil, contract.NewInvalidInputf("at least one user is required")
	}
	return lister.Users(ctx)
}
