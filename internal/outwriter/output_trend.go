package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// trendFixedWidth is the width of the trend table without the summary column.
const trendFixedWidth = 55

// writeTrendsText prints each trend as a dated table followed by its averages.
func writeTrendsText(w io.Writer, trends []schema.TrendResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	for i := range trends {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeTrendText(w, &trends[i], cfg, fmtFloat); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Trend completed in %v with %d workers. Cache backend: %s\n",
		duration.Round(time.Millisecond), cfg.Workers, cfg.CacheBackend)
	return err
}

func writeTrendText(w io.Writer, t *schema.TrendResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "📈 Fragmentation trend for %s (%s to %s)\n", t.UserID, t.StartDate, t.EndDate); err != nil {
		return err
	}

	rolling := make(map[string]schema.RollingPoint, len(t.RollingAverages))
	for _, p := range t.RollingAverages {
		rolling[p.Date.String()] = p
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Score", "Risk", "Activities", "Rolling", "Summary"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	summaryWidth := GetMaxTableSummaryWidth(cfg, trendFixedWidth)
	data := make([][]string, 0, len(t.Scores))
	for _, s := range t.Scores {
		avg := ""
		if p, ok := rolling[s.Date.String()]; ok {
			avg = fmtFloat(p.Average.Float())
		}
		data = append(data, []string{
			s.Date.String(),
			fmtFloat(s.Score.Float()),
			contract.GetColorLabel(s.RiskLevel),
			strconv.Itoa(s.ActivitiesCount),
			avg,
			contract.TruncateText(s.Summary, summaryWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Average: %s over %d scored days\n", formatAverage(t.Average, fmtFloat), len(t.Scores)); err != nil {
		return err
	}
	if t.Warning != "" {
		if _, err := fmt.Fprintf(w, "%s %s\n", contract.ModerateColor.Sprint("Warning:"), t.Warning); err != nil {
			return err
		}
	}
	if t.Anomaly != nil {
		return writeAnomalyLine(w, t.Anomaly)
	}
	return nil
}

// writeAnomalyLine prints the detector verdict, highlighting a detected spike.
func writeAnomalyLine(w io.Writer, a *schema.AnomalyResult) error {
	if !a.IsAnomaly {
		_, err := fmt.Fprintf(w, "Anomaly: none (%s)\n", a.Message)
		return err
	}
	where := ""
	if a.Date != nil {
		where = " on " + a.Date.String()
	}
	_, err := fmt.Fprintf(w, "%s%s: %s\n", contract.AnomalyColor.Sprint("Anomaly"), where, a.Message)
	return err
}

// writeTrendsCSV writes one row per user and scored day.
func writeTrendsCSV(w io.Writer, trends []schema.TrendResult, fmtFloat func(float64) string) error {
	header := []string{"user_id", "date", "score", "risk_level", "activities", "rolling_average", "summary"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, t := range trends {
			rolling := make(map[string]schema.RollingPoint, len(t.RollingAverages))
			for _, p := range t.RollingAverages {
				rolling[p.Date.String()] = p
			}
			for _, s := range t.Scores {
				avg := ""
				if p, ok := rolling[s.Date.String()]; ok {
					avg = fmtFloat(p.Average.Float())
				}
				rec := []string{
					t.UserID,
					s.Date.String(),
					fmtFloat(s.Score.Float()),
					string(s.RiskLevel),
					strconv.Itoa(s.ActivitiesCount),
					avg,
					s.Summary,
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
