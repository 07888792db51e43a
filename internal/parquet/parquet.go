// Package parquet provides the row types and writers used to export fragmentation
// scores and score history with github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/fragmeter/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single scoring run with metadata.
// This struct maps to the fragmeter_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Command is the CLI command or API operation that started the run
	Command string `parquet:"command,snappy"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalScores int32 `parquet:"total_scores,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// DailyScore is the score of one user on one day within a run.
// This struct maps to the fragmeter_daily_scores database table.
type DailyScore struct {
	RunID           int64     `parquet:"run_id,snappy"`
	UserID          string    `parquet:"user_id,dict,snappy"`
	Day             string    `parquet:"day,dict,snappy"`
	Score           float64   `parquet:"score,snappy"`
	RiskLevel       string    `parquet:"risk_level,dict,snappy"`
	Summary         string    `parquet:"summary,snappy"`
	ActivitiesCount int32     `parquet:"activities_count,snappy"`
	RecordedAt      time.Time `parquet:"recorded_at,snappy"`
}

// ScoreRow is one scored window in a result file.
// Trend days, team members and plain scores all flatten to this shape.
type ScoreRow struct {
	UserID          string    `parquet:"user_id,dict,snappy"`
	Date            string    `parquet:"date,optional,snappy"`
	Score           float64   `parquet:"score,snappy"`
	RiskLevel       string    `parquet:"risk_level,dict,snappy"`
	Summary         string    `parquet:"summary,snappy"`
	ActivitiesCount int32     `parquet:"activities_count,snappy"`
	WindowDays      int32     `parquet:"window_days,snappy"`
	GeneratedAt     time.Time `parquet:"generated_at,snappy"`
}

// WriteRows writes rows of any schema-tagged struct to w.
func WriteRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

func writeFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteRows(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteDailyScoresParquet writes daily scores to a Parquet file.
func WriteDailyScoresParquet(data []DailyScore, outputPath string) error {
	return writeFile(data, outputPath)
}

// ConvertRuns converts schema.HistoryRun to Run for Parquet export.
func ConvertRuns(records []schema.HistoryRun) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			Command:       record.Command,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.DurationMs,
			TotalScores:   record.TotalScores,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertDailyScores converts schema.HistoryRecord to DailyScore for Parquet export.
func ConvertDailyScores(records []schema.HistoryRecord) []DailyScore {
	result := make([]DailyScore, len(records))
	for i, record := range records {
		result[i] = DailyScore{
			RunID:           record.RunID,
			UserID:          record.UserID,
			Day:             record.Day,
			Score:           record.Score,
			RiskLevel:       record.RiskLevel,
			Summary:         record.Summary,
			ActivitiesCount: record.ActivitiesCount,
			RecordedAt:      record.RecordedAt,
		}
	}
	return result
}

// ScoreRows flattens score results into rows.
func ScoreRows(results []schema.ScoreResult, generatedAt time.Time) []ScoreRow {
	rows := make([]ScoreRow, len(results))
	for i, r := range results {
		rows[i] = ScoreRow{
			UserID:          r.UserID,
			Score:           r.FragmentationScore.Float(),
			RiskLevel:       string(r.RiskLevel),
			Summary:         r.Summary,
			ActivitiesCount: int32(r.ActivitiesCount),
			WindowDays:      int32(r.WindowDays),
			GeneratedAt:     generatedAt,
		}
	}
	return rows
}

// TrendRows flattens trend days into one row per user and day.
func TrendRows(trends []schema.TrendResult, generatedAt time.Time) []ScoreRow {
	var rows []ScoreRow
	for _, t := range trends {
		for _, s := range t.Scores {
			rows = append(rows, ScoreRow{
				UserID:          t.UserID,
				Date:            s.Date.String(),
				Score:           s.Score.Float(),
				RiskLevel:       string(s.RiskLevel),
				Summary:         s.Summary,
				ActivitiesCount: int32(s.ActivitiesCount),
				WindowDays:      1,
				GeneratedAt:     generatedAt,
			})
		}
	}
	return rows
}
