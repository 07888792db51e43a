package schema

import "time"

// CacheStatus represents the status of the activity cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the score history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalScores   int              `json:"total_scores"`
	DistinctUsers int              `json:"distinct_users"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// HistoryRun represents a row from the fragmeter_runs table.
type HistoryRun struct {
	RunID        int64
	Command      string
	StartTime    time.Time
	EndTime      *time.Time
	DurationMs   *int32
	TotalScores  int32
	ConfigParams *string
}

// HistoryRecord represents a row from the fragmeter_daily_scores table.
type HistoryRecord struct {
	RunID           int64
	UserID          string
	Day             string
	Score           float64
	RiskLevel       string
	Summary         string
	ActivitiesCount int32
	RecordedAt      time.Time
}
