package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/schema"
)

// WeightRow describes how one factor contributes to a score.
type WeightRow struct {
	Factor schema.FactorKey `json:"factor"`
	Weight float64          `json:"weight"`
	Rule   string           `json:"rule"`
}

// buildWeightRows lists the factors in summary order with their active weights.
func buildWeightRows(w schema.Weights) []WeightRow {
	return []WeightRow{
		{schema.FactorIssueUpdates, w.IssueUpdate, "per issue update"},
		{schema.FactorMeetings, w.Meeting, "per meeting or calendar event"},
		{schema.FactorSourceSwitches, w.SourceSwitch, "per change of source between consecutive non-presence activities"},
		{schema.FactorTypeSwitches, w.TypeSwitch, "per change of type within the same source"},
		{schema.FactorMultiPlatform, w.MultiPlatform, fmt.Sprintf("once when more than %d distinct sources appear", w.MultiPlatformSources)},
		{schema.FactorDensity, w.Density, fmt.Sprintf("once when more than %d activities per window day occur", w.DensityPerDay)},
	}
}

// writeWeightsText displays the scoring model in human-readable text format.
func writeWeightsText(w io.Writer, rows []WeightRow) error {
	if _, err := fmt.Fprintln(w, "🧩 Fragmentation Scoring Model"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "=============================="); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\nScore = sum of factor weights, clamped to [%.1f, %.1f] and rounded to one decimal.\n\n",
		schema.MinScore, schema.MaxScore); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "  %-16s +%.2f  %s\n", r.Factor, r.Weight, r.Rule); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nNon-empty windows score at least %.1f. Risk: Low < %.1f <= Moderate < %.1f <= High\n",
		schema.FloorScore, algo.ModerateRiskFloor, algo.HighRiskFloor)
	return err
}

// writeWeightsCSV writes the scoring factors in CSV format.
func writeWeightsCSV(w io.Writer, rows []WeightRow) error {
	return writeCSVWithHeader(w, []string{"factor", "weight", "rule"}, func(cw *csv.Writer) error {
		for _, r := range rows {
			if err := cw.Write([]string{string(r.Factor), strconv.FormatFloat(r.Weight, 'f', -1, 64), r.Rule}); err != nil {
				return err
			}
		}
		return nil
	})
}
