// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/fragmeter/schema"
)

// ActivitySource supplies the activities of one user within a time window.
// Implementations own fetching, caching and rate limiting; the engine never filters by user.
type ActivitySource interface {
	// FetchActivities returns the activities of userID between start and end.
	// Implementations may include the end instant; callers trim to their exact window.
	FetchActivities(ctx context.Context, userID string, start, end time.Time) ([]schema.ActivityItem, error)
}

// UserLister is implemented by sources that can enumerate their users.
type UserLister interface {
	Users(ctx context.Context) ([]string, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetActivityStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking scoring runs and their daily scores.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(command string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalScores int) error

	// RecordDailyScore stores the score of one user on one day
	RecordDailyScore(runID int64, userID string, score schema.HistoricalScore) error

	// GetUserHistory returns the latest recorded score per day for a user, oldest first
	GetUserHistory(userID string, start, end schema.Date) ([]schema.HistoricalScore, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns retrieves every recorded run, oldest first
	GetAllRuns() ([]schema.HistoryRun, error)

	// GetAllRecords retrieves every recorded daily score, ordered by run, user and day
	GetAllRecords() ([]schema.HistoryRecord, error)

	// Close closes the underlying connection
	Close() error
}
