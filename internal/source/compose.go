package source

import (
	"context"
	"errors"

	"github.com/huangsam/fragmeter/internal/contract"
)

// New builds the activity source configured by cfg. Fetches go through the cache
// first and only misses are rate limited.
func New(cfg *contract.Config, mgr contract.CacheManager) (contract.ActivitySource, error) {
	if cfg.DataDir == "" {
		return nil, contract.NewInvalidInputf("a data directory is required (--data-dir)")
	}

	var src contract.ActivitySource = NewFileSource(cfg.DataDir)
	if cfg.RateLimit > 0 {
		src = NewRateLimitedSource(src, cfg.RateLimit, cfg.RateBurst)
	}
	if mgr != nil {
		if store := mgr.GetActivityStore(); store != nil {
			src = NewCachedSource(src, store, cfg.CacheTTL)
		}
	}
	return src, nil
}

// listUsers lists the users of src if it supports listing.
func listUsers(ctx context.Context, src contract.ActivitySource) ([]string, error) {
	lister, ok := src.(contract.UserLister)
	if !ok {
		return nil, errors.New("activity source cannot list users")
	}
	return lister.Users(ctx)
}
