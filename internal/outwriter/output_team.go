package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeTeamText prints the daily team averages and a per-member summary.
func writeTeamText(w io.Writer, result *schema.TeamTrendResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "👥 Team fragmentation (%s to %s)\n", result.StartDate, result.EndDate); err != nil {
		return err
	}

	daily := tablewriter.NewWriter(w)
	daily.Header([]string{"Date", "Average", "Risk", "Members"})
	daily.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	rows := make([][]string, 0, len(result.Daily))
	for _, d := range result.Daily {
		rows = append(rows, []string{
			d.Date.String(),
			fmtFloat(d.Average.Float()),
			contract.GetColorLabel(algo.ClassifyRisk(d.Average.Float())),
			strconv.Itoa(d.MemberCount),
		})
	}
	if err := daily.Bulk(rows); err != nil {
		return err
	}
	if err := daily.Render(); err != nil {
		return err
	}

	members := tablewriter.NewWriter(w)
	members.Header([]string{"User", "Days", "Average", "Failed Days"})
	members.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	rows = rows[:0]
	for _, m := range result.Members {
		rows = append(rows, []string{
			m.UserID,
			strconv.Itoa(len(m.Scores)),
			formatAverage(m.Average, fmtFloat),
			strconv.Itoa(len(m.Failures)),
		})
	}
	if err := members.Bulk(rows); err != nil {
		return err
	}
	if err := members.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Team average: %s across %d members\n", formatAverage(result.Average, fmtFloat), len(result.Members)); err != nil {
		return err
	}
	if result.Warning != "" {
		if _, err := fmt.Fprintf(w, "%s %s\n", contract.ModerateColor.Sprint("Warning:"), result.Warning); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Team trend completed in %v with %d workers. Cache backend: %s\n",
		duration.Round(time.Millisecond), cfg.Workers, cfg.CacheBackend)
	return err
}

// writeTeamCSV writes the daily team averages.
func writeTeamCSV(w io.Writer, result *schema.TeamTrendResult, fmtFloat func(float64) string) error {
	header := []string{"date", "average", "risk_level", "members"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, d := range result.Daily {
			rec := []string{
				d.Date.String(),
				fmtFloat(d.Average.Float()),
				string(algo.ClassifyRisk(d.Average.Float())),
				strconv.Itoa(d.MemberCount),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
