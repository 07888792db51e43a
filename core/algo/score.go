// Package algo holds the pure scoring, risk and anomaly functions.
package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// Score computes the fragmentation score of one user's activities over a window of
// windowDays using the default weights.
func Score(activities []schema.ActivityItem, windowDays int) (schema.ScoreResult, error) {
	return ScoreWithWeights(activities, windowDays, schema.DefaultWeights())
}

// ScoreWithWeights computes the fragmentation score with custom weights.
//
// Activities are scanned oldest first. Meetings and issue updates add their weights, and
// every activity is compared with the last non-presence activity to detect source and
// type switches. Presence activities are never remembered as the previous activity.
// Bonuses for multi-platform use and activity density are applied after the scan.
//
// A non-finite total is returned as a ComputationAnomaly error; the engine itself never
// substitutes a fallback score.
func ScoreWithWeights(activities []schema.ActivityItem, windowDays int, w schema.Weights) (schema.ScoreResult, error) {
	if windowDays < 1 {
		return schema.ScoreResult{}, contract.NewInvalidInputf("window days must be at least 1, got %d", windowDays)
	}
	for i, a := range activities {
		if err := a.Validate(); err != nil {
			return schema.ScoreResult{}, contract.NewInvalidInput(fmt.Sprintf("invalid activity at index %d", i), err)
		}
	}

	if len(activities) == 0 {
		return schema.ScoreResult{
			FragmentationScore: 0,
			Summary:            EmptySummary,
			RiskLevel:          schema.LowRisk,
			ActivitiesCount:    0,
			WindowDays:         windowDays,
		}, nil
	}

	sorted := schema.SortActivities(activities)

	var (
		total          float64
		b              schema.Breakdown
		meetingMinutes float64
		prev           *schema.ActivityItem
	)
	for i := range sorted {
		cur := &sorted[i]
		kind := cur.Kind()

		switch kind {
		case schema.MeetingKind:
			total += w.Meeting
			b.Meetings++
			if cur.DurationMinutes != nil {
				meetingMinutes += *cur.DurationMinutes
			}
		case schema.IssueUpdateKind:
			total += w.IssueUpdate
			b.IssueUpdates++
		}

		if prev != nil {
			switch {
			case cur.Source != prev.Source:
				total += w.SourceSwitch
				b.SourceSwitches++
			case cur.Type != prev.Type && kind != schema.PresenceKind:
				total += w.TypeSwitch
				b.TypeSwitches++
			}
		}

		if kind != schema.PresenceKind {
			prev = cur
		}
	}

	if schema.DistinctSources(sorted) > w.MultiPlatformSources {
		total += w.MultiPlatform
		b.MultiPlatform = true
	}
	if len(sorted) > w.DensityPerDay*windowDays {
		total += w.Density
		b.DensityBonus = true
	}

	if math.IsNaN(total) || math.IsInf(total, 0) {
		return schema.ScoreResult{}, contract.NewComputationAnomaly("fragmentation score is not a finite number")
	}

	// Floor runs on the unclamped total so that presence-only sets still register.
	if Round1(total) == 0 {
		total = schema.FloorScore
	}
	final := Round1(Clamp(total, schema.MinScore, schema.MaxScore))

	return schema.ScoreResult{
		FragmentationScore: schema.Score(final),
		Summary:            Summarize(b, final),
		RiskLevel:          ClassifyRisk(final),
		ActivitiesCount:    len(sorted),
		WindowDays:         windowDays,
		MeetingMinutes:     Round1(meetingMinutes),
		Breakdown:          b,
	}, nil
}
