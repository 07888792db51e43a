package source

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// currentCacheVersion defines the version of the cached activity payload
const currentCacheVersion = 1

// CachedSource serves repeated fetches of the same window from a CacheStore.
type CachedSource struct {
	Next  contract.ActivitySource
	Store contract.CacheStore
	TTL   time.Duration
	Now   func() time.Time
}

var (
	_ contract.ActivitySource = &CachedSource{} // Compile-time check
	_ contract.UserLister     = &CachedSource{} // Compile-time check
)

// NewCachedSource wraps next with a cache backed by store.
func NewCachedSource(next contract.ActivitySource, store contract.CacheStore, ttl time.Duration) *CachedSource {
	return &CachedSource{Next: next, Store: store, TTL: ttl, Now: time.Now}
}

// FetchActivities returns cached activities when a fresh entry exists, otherwise
// fetches from Next and stores the result. Errors are never cached.
func (s *CachedSource) FetchActivities(ctx context.Context, userID string, start, end time.Time) ([]schema.ActivityItem, error) {
	key := generateCacheKey(userID, start, end)

	// Check for cache hit
	if items, ok := s.checkCacheHit(key); ok {
		return items, nil
	}

	// Cache miss: fetch and store
	items, err := s.Next.FetchActivities(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(items); err == nil {
		if err := s.Store.Set(key, data, currentCacheVersion, s.now().Unix()); err != nil {
			contract.LogWarn("Activity cache write failed", err)
		}
	}
	return items, nil
}

// Users delegates to Next when it can list users.
func (s *CachedSource) Users(ctx context.Context) ([]string, error) {
	return listUsers(ctx, s.Next)
}

// checkCacheHit attempts to retrieve and validate a cached entry. A cached empty
// window is a hit with no items.
func (s *CachedSource) checkCacheHit(key string) ([]schema.ActivityItem, bool) {
	data, version, ts, err := s.Store.Get(key)
	if err != nil {
		return nil, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion {
		return nil, false
	}
	if s.TTL > 0 && s.now().Sub(time.Unix(ts, 0)) > s.TTL {
		return nil, false
	}
	var items []schema.ActivityItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []schema.ActivityItem{}
	}
	return items, true
}

func (s *CachedSource) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// generateCacheKey creates a unique key for one user's window
func generateCacheKey(userID string, start, end time.Time) string {
	key := fmt.Sprintf("%s:%d:%d", userID, start.UnixNano(), end.UnixNano())
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
