package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// Table names for score history.
const (
	runsTable        = "fragmeter_runs"
	dailyScoresTable = "fragmeter_daily_scores"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	now     func() time.Time
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a HistoryStore with the specified backend and migrates its schema.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend {
		// No-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend, now: time.Now}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}
	if err := migrateToLatest(db, backend); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &HistoryStoreImpl{db: db, backend: backend, now: time.Now}, nil
}

func (hs *HistoryStoreImpl) table(name string) string {
	return quoteTableName(name, hs.backend)
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(command string, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (command, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, hs.table(runsTable))
		err = hs.db.QueryRow(query, command, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (command, start_time, config_params) VALUES (?, ?, ?)`, hs.table(runsTable))
		var result sql.Result
		result, err = hs.db.Exec(query, command, formatTime(startTime, hs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totalScores int) error {
	if hs.db == nil {
		return nil
	}

	var start timeScanner
	query := rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, hs.table(runsTable)), hs.backend)
	if err := hs.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(start.Time).Milliseconds()

	update := rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_scores = ? WHERE run_id = ?`, hs.table(runsTable)), hs.backend)
	if _, err := hs.db.Exec(update, formatTime(endTime, hs.backend), durationMs, totalScores, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordDailyScore stores the score of one user on one day.
func (hs *HistoryStoreImpl) RecordDailyScore(runID int64, userID string, score schema.HistoricalScore) error {
	if hs.db == nil {
		return nil
	}

	query := rebind(fmt.Sprintf(`
		INSERT INTO %s (run_id, user_id, day, score, risk_level, summary, activities_count, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, hs.table(dailyScoresTable)), hs.backend)
	_, err := hs.db.Exec(query,
		runID, userID, score.Date.String(), score.Score.Float(), string(score.RiskLevel),
		score.Summary, score.ActivitiesCount, formatTime(hs.now(), hs.backend),
	)
	if err != nil {
		return fmt.Errorf("failed to insert daily score: %w", err)
	}
	return nil
}

// GetUserHistory returns the most recently recorded score of each day in [start, end], oldest first.
func (hs *HistoryStoreImpl) GetUserHistory(userID string, start, end schema.Date) ([]schema.HistoricalScore, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := rebind(fmt.Sprintf(`
		SELECT day, score, risk_level, summary, activities_count
		FROM %s
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC, run_id DESC
	`, hs.table(dailyScoresTable)), hs.backend)
	rows, err := hs.db.Query(query, userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query user history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []schema.HistoricalScore
	for rows.Next() {
		var (
			day, risk, summary string
			score              float64
			count              int
		)
		if err := rows.Scan(&day, &score, &risk, &summary, &count); err != nil {
			return nil, fmt.Errorf("failed to scan daily score: %w", err)
		}
		if n := len(history); n > 0 && history[n-1].Date.String() == day {
			continue // an older run of the same day
		}
		date, err := schema.ParseDate(day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse day %q: %w", day, err)
		}
		history = append(history, schema.HistoricalScore{
			Date:            date,
			Score:           schema.Score(score),
			RiskLevel:       schema.RiskLevel(risk),
			Summary:         summary,
			ActivitiesCount: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user history: %w", err)
	}
	return history, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(runsTable)))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest timeScanner
		row = hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", hs.table(runsTable)))
		if err := row.Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = last.Time

		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", hs.table(runsTable)))
		if err := row.Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest.Time
	}

	row = hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT user_id) FROM %s", hs.table(dailyScoresTable)))
	if err := row.Scan(&status.TotalScores, &status.DistinctUsers); err != nil {
		return status, fmt.Errorf("failed to count daily scores: %w", err)
	}

	status.TableSizes[runsTable] = int64(status.TotalRuns)
	status.TableSizes[dailyScoresTable] = int64(status.TotalScores)
	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.HistoryRun, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, command, start_time, end_time, run_duration_ms, total_scores, config_params FROM %s ORDER BY run_id", hs.table(runsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HistoryRun
	for rows.Next() {
		var (
			record     schema.HistoryRun
			start, end timeScanner
			duration   sql.NullInt64
			params     sql.NullString
		)
		if err := rows.Scan(&record.RunID, &record.Command, &start, &end, &duration, &record.TotalScores, &params); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.StartTime = start.Time
		if end.Valid {
			t := end.Time
			record.EndTime = &t
		}
		if duration.Valid {
			ms := int32(duration.Int64)
			record.DurationMs = &ms
		}
		if params.Valid {
			p := params.String
			record.ConfigParams = &p
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllRecords retrieves all daily scores from the store.
func (hs *HistoryStoreImpl) GetAllRecords() ([]schema.HistoryRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, user_id, day, score, risk_level, summary, activities_count, recorded_at
		FROM %s ORDER BY run_id, user_id, day`, hs.table(dailyScoresTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HistoryRecord
	for rows.Next() {
		var (
			record   schema.HistoryRecord
			recorded timeScanner
		)
		if err := rows.Scan(&record.RunID, &record.UserID, &record.Day, &record.Score, &record.RiskLevel,
			&record.Summary, &record.ActivitiesCount, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan daily score: %w", err)
		}
		record.RecordedAt = recorded.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily scores: %w", err)
	}
	return results, nil
}
