package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/parquet"
)

// ExecuteHistoryExport writes the score history to <outputFile>.runs.parquet and
// <outputFile>.daily_scores.parquet.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history tracking is disabled; set --history-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no history data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total daily scores: %d\n", status.TotalScores)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	records, err := store.GetAllRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve daily scores: %w", err)
	}

	runRows := parquet.ConvertRuns(runs)
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(runRows, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runRows), runsFile)

	scoreRows := parquet.ConvertDailyScores(records)
	scoresFile := outputFile + ".daily_scores.parquet"
	if err := parquet.WriteDailyScoresParquet(scoreRows, scoresFile); err != nil {
		return fmt.Errorf("failed to write daily scores: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d daily scores to: %s\n", len(scoreRows), scoresFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be read with DuckDB, Pandas (via pyarrow) or Spark.")
	return nil
}
