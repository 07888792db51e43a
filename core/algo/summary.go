package algo

import (
	"fmt"
	"strings"

	"github.com/huangsam/fragmeter/schema"
)

// Summary phrases.
const (
	EmptySummary       = "No tracked activity in this window."
	LowActivitySummary = "Low overall activity."
	GeneralSummary     = "General activity patterns."
)

// lowActivityCeiling is the highest score that still reads as low activity.
const lowActivityCeiling = 1.0

// Summarize lists the contributing factors in a fixed order. When nothing contributed
// it falls back to a generic phrase keyed on the final score.
func Summarize(b schema.Breakdown, score float64) string {
	var parts []string
	if b.IssueUpdates > 0 {
		parts = append(parts, countPhrase(b.IssueUpdates, "issue update", "issue updates"))
	}
	if b.Meetings > 0 {
		parts = append(parts, countPhrase(b.Meetings, "meeting", "meetings"))
	}
	if b.SourceSwitches > 0 {
		parts = append(parts, countPhrase(b.SourceSwitches, "source switch", "source switches"))
	}
	if b.TypeSwitches > 0 {
		parts = append(parts, countPhrase(b.TypeSwitches, "type switch", "type switches"))
	}
	if b.MultiPlatform {
		parts = append(parts, "multi-platform activity")
	}
	if b.DensityBonus {
		parts = append(parts, "high activity density")
	}

	if b.Empty() {
		if score <= lowActivityCeiling {
			return LowActivitySummary
		}
		return GeneralSummary
	}
	return "Factors: " + strings.Join(parts, ", ") + "."
}

func countPhrase(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
