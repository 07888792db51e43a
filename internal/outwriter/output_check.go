package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/fragmeter/schema"
)

// maxViolationsShown caps the violations listed in text output.
const maxViolationsShown = 10

// writeCheckText prints the check result in a concise format suitable for CI/CD.
func writeCheckText(w io.Writer, result *schema.CheckResult, fmtFloat func(float64) string, duration time.Duration) error {
	if err := writeCheckHeader(w, result, fmtFloat, duration); err != nil {
		return err
	}
	if result.Passed {
		return writeCheckSuccess(w, result, fmtFloat)
	}
	return writeCheckFailure(w, result, fmtFloat)
}

// writeCheckHeader prints the common header information for check results.
func writeCheckHeader(w io.Writer, result *schema.CheckResult, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintln(w, "Fragmentation Check Results:"); err != nil {
		return err
	}

	// Define labels and values for dynamic padding
	labels := []string{"Window:", "Threshold:", "Users:"}
	values := []string{
		fmt.Sprintf("%d days", result.WindowDays),
		fmtFloat(result.Threshold),
		strconv.Itoa(len(result.Results) + len(result.Failures)),
	}

	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}
	for i, label := range labels {
		if _, err := fmt.Fprintf(w, "  %-*s %s\n", maxLabelLen+1, label, values[i]); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\nChecked %d users in %v\n\n", len(result.Results), duration.Round(time.Millisecond))
	return err
}

// writeCheckSuccess prints the highest observed score.
func writeCheckSuccess(w io.Writer, result *schema.CheckResult, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "✅ All users are below the fragmentation threshold\n"); err != nil {
		return err
	}
	if len(result.Results) == 0 {
		return nil
	}

	top := result.Results[0]
	var sum float64
	for _, r := range result.Results {
		sum += r.FragmentationScore.Float()
		if r.FragmentationScore > top.FragmentationScore {
			top = r
		}
	}
	avg := sum / float64(len(result.Results))
	_, err := fmt.Fprintf(w, "\nScores observed: max=%s (%s), avg=%s\n", fmtFloat(top.FragmentationScore.Float()), top.UserID, fmtFloat(avg))
	return err
}

// writeCheckFailure lists violations and users that could not be scored.
func writeCheckFailure(w io.Writer, result *schema.CheckResult, fmtFloat func(float64) string) error {
	if _, err := fmt.Fprintf(w, "❌ Fragmentation check failed: %d violation(s), %d unscored user(s)\n\n",
		len(result.Violations), len(result.Failures)); err != nil {
		return err
	}

	for i, v := range result.Violations {
		if i == maxViolationsShown {
			if _, err := fmt.Fprintf(w, "  ... and %d more\n", len(result.Violations)-i); err != nil {
				return err
			}
			break
		}
		if _, err := fmt.Fprintf(w, "  - %s (score: %s >= threshold: %s, %s)\n",
			v.UserID, fmtFloat(v.Score.Float()), fmtFloat(result.Threshold), v.RiskLevel); err != nil {
			return err
		}
	}
	for _, f := range result.Failures {
		if _, err := fmt.Fprintf(w, "  - %s could not be scored: %s\n", f.UserID, f.Error); err != nil {
			return err
		}
	}
	return nil
}

// writeCheckCSV writes one row per checked user.
func writeCheckCSV(w io.Writer, result *schema.CheckResult, fmtFloat func(float64) string) error {
	violating := make(map[string]struct{}, len(result.Violations))
	for _, v := range result.Violations {
		violating[v.UserID] = struct{}{}
	}

	header := []string{"user_id", "score", "risk_level", "threshold", "violation", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range result.Results {
			_, bad := violating[r.UserID]
			rec := []string{
				r.UserID,
				fmtFloat(r.FragmentationScore.Float()),
				string(r.RiskLevel),
				fmtFloat(result.Threshold),
				strconv.FormatBool(bad),
				"",
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		for _, f := range result.Failures {
			if err := cw.Write([]string{f.UserID, "", "", fmtFloat(result.Threshold), "true", f.Error}); err != nil {
				return err
			}
		}
		return nil
	})
}
