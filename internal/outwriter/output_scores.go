package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/parquet"
	"github.com/huangsam/fragmeter/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// scoreFixedWidth is the width of the score table without the summary column.
const scoreFixedWidth = 70

// writeScoresTable generates and writes the human-readable score table.
func writeScoresTable(w io.Writer, results []schema.ScoreResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"User", "Score", "Risk", "Activities", "Meetings", "Issues", "Switches", "Summary"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	summaryWidth := GetMaxTableSummaryWidth(cfg, scoreFixedWidth)
	data := make([][]string, 0, len(results))
	for _, r := range results {
		data = append(data, []string{
			r.UserID,
			fmtFloat(r.FragmentationScore.Float()),
			contract.GetColorLabel(r.RiskLevel),
			strconv.Itoa(r.ActivitiesCount),
			strconv.Itoa(r.Breakdown.Meetings),
			strconv.Itoa(r.Breakdown.IssueUpdates),
			formatSwitches(r.Breakdown),
			contract.TruncateText(r.Summary, summaryWidth),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	windowDays := cfg.WindowDays
	if len(results) > 0 {
		windowDays = results[0].WindowDays
	}
	_, err := fmt.Fprintf(w, "Scored %d users over a %d day window in %v with %d workers. Cache backend: %s\n",
		len(results), windowDays, duration.Round(time.Millisecond), cfg.Workers, cfg.CacheBackend)
	return err
}

// formatSwitches renders source and type switches as "source/type".
func formatSwitches(b schema.Breakdown) string {
	return fmt.Sprintf("%d/%d", b.SourceSwitches, b.TypeSwitches)
}

// writeScoresCSV writes score results in CSV format.
func writeScoresCSV(w io.Writer, results []schema.ScoreResult, fmtFloat func(float64) string) error {
	header := []string{
		"user_id",
		"score",
		"risk_level",
		"activities",
		"window_days",
		"meetings",
		"issue_updates",
		"source_switches",
		"type_switches",
		"multi_platform",
		"density_bonus",
		"meeting_minutes",
		"summary",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range results {
			rec := []string{
				r.UserID,
				fmtFloat(r.FragmentationScore.Float()),
				string(r.RiskLevel),
				strconv.Itoa(r.ActivitiesCount),
				strconv.Itoa(r.WindowDays),
				strconv.Itoa(r.Breakdown.Meetings),
				strconv.Itoa(r.Breakdown.IssueUpdates),
				strconv.Itoa(r.Breakdown.SourceSwitches),
				strconv.Itoa(r.Breakdown.TypeSwitches),
				strconv.FormatBool(r.Breakdown.MultiPlatform),
				strconv.FormatBool(r.Breakdown.DensityBonus),
				strconv.FormatFloat(r.MeetingMinutes, 'f', 1, 64),
				r.Summary,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeParquetScores writes score results to the output file as Parquet.
func (ow *OutWriter) writeParquetScores(results []schema.ScoreResult) error {
	rows := parquet.ScoreRows(results, ow.now())
	return ow.writeWithFile(func(w io.Writer) error { return parquet.WriteRows(w, rows) }, "Wrote Parquet")
}

// writeParquetTrends writes trend days to the output file as Parquet.
func (ow *OutWriter) writeParquetTrends(trends []schema.TrendResult) error {
	rows := parquet.TrendRows(trends, ow.now())
	return ow.writeWithFile(func(w io.Writer) error { return parquet.WriteRows(w, rows) }, "Wrote Parquet")
}
