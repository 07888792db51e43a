package schema

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// ActivityItem is a single workplace activity record supplied by a collaborator.
// It carries no user identity; callers pass one user's activities for one window.
type ActivityItem struct {
	Type                  string          `json:"type"`
	Timestamp             time.Time       `json:"timestamp"`
	Source                Source          `json:"source"`
	Details               string          `json:"details,omitempty"`
	DurationMinutes       *float64        `json:"durationMinutes,omitempty"`
	JiraStatusCategoryKey *StatusCategory `json:"jiraStatusCategoryKey,omitempty"`
}

// Validate reports the first field that violates the activity invariants.
func (a ActivityItem) Validate() error {
	if strings.TrimSpace(a.Type) == "" {
		return errors.New("type is required")
	}
	if a.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	if _, ok := ValidSources[a.Source]; !ok {
		return fmt.Errorf("invalid source %q. must be teams, jira, m365, other", a.Source)
	}
	if a.DurationMinutes != nil {
		d := *a.DurationMinutes
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return fmt.Errorf("durationMinutes must be a non-negative number (received %v)", d)
		}
	}
	if a.JiraStatusCategoryKey != nil {
		if _, ok := ValidStatusCategories[*a.JiraStatusCategoryKey]; !ok {
			return fmt.Errorf("invalid jiraStatusCategoryKey %q. must be new, indeterminate, done", *a.JiraStatusCategoryKey)
		}
	}
	return nil
}

// Kind classifies the activity from its type tag.
func (a ActivityItem) Kind() ActivityKind {
	return KindOf(a.Type)
}

// KindOf classifies an activity type tag. Presence is checked first so a tag such
// as "presence_update" never counts as an issue update.
func KindOf(activityType string) ActivityKind {
	t := strings.ToLower(activityType)
	switch {
	case strings.Contains(t, "presence"):
		return PresenceKind
	case strings.Contains(t, "meeting"), strings.Contains(t, "calendar_event"):
		return MeetingKind
	case strings.HasSuffix(t, "_update"), strings.Contains(t, "issue"):
		return IssueUpdateKind
	default:
		return OtherKind
	}
}

// SortActivities returns a copy of items ordered by timestamp. Items with equal
// timestamps keep their relative order.
func SortActivities(items []ActivityItem) []ActivityItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b ActivityItem) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return sorted
}

// FilterWindow returns the items whose timestamp falls in [start, end).
// When inclusiveEnd is set the end instant itself is kept.
func FilterWindow(items []ActivityItem, start, end time.Time, inclusiveEnd bool) []ActivityItem {
	out := make([]ActivityItem, 0, len(items))
	for _, a := range items {
		if a.Timestamp.Before(start) {
			continue
		}
		if a.Timestamp.After(end) || (!inclusiveEnd && a.Timestamp.Equal(end)) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// DistinctSources returns the number of distinct sources across items.
func DistinctSources(items []ActivityItem) int {
	seen := make(map[Source]struct{}, len(ValidSources))
	for _, a := range items {
		seen[a.Source] = struct{}{}
	}
	return len(seen)
}
