package source

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
	"golang.org/x/time/rate"
)

// RateLimitedSource throttles fetches to Next with a token bucket.
type RateLimitedSource struct {
	Next    contract.ActivitySource
	Limiter *rate.Limiter
}

var (
	_ contract.ActivitySource = &RateLimitedSource{} // Compile-time check
	_ contract.UserLister     = &RateLimitedSource{} // Compile-time check
)

// NewRateLimitedSource allows perSecond fetches with the given burst.
func NewRateLimitedSource(next contract.ActivitySource, perSecond float64, burst int) *RateLimitedSource {
	return &RateLimitedSource{
		Next:    next,
		Limiter: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1)),
	}
}

// FetchActivities waits for a token and then fetches. Waiting honors ctx cancellation.
func (s *RateLimitedSource) FetchActivities(ctx context.Context, userID string, start, end time.Time) ([]schema.ActivityItem, error) {
	if err := s.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return s.Next.FetchActivities(ctx, userID, start, end)
}

// Users delegates to Next when it can list users.
func (s *RateLimitedSource) Users(ctx context.Context) ([]string, error) {
	return listUsers(ctx, s.Next)
}
