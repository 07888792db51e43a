package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fragmeter/schema"
)

// Define the regular expression to capture "N [units] ago"
// e.g., "2 weeks ago", "3 days ago", "1 month ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?\s+ago$`)

// ParseRelativeTime converts strings like "3 days ago" into a time.Time in the past.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)

	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	// 1: Value (e.g., "2")
	// 2: Unit (e.g., "day" or "week")
	value, _ := strconv.Atoi(matches[1])
	unit := matches[2]

	switch unit {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.AddDate(0, 0, -7*value), nil
	case "day":
		return now.AddDate(0, 0, -value), nil
	case "hour":
		return now.Add(time.Duration(-value) * time.Hour), nil
	case "minute":
		return now.Add(time.Duration(-value) * time.Minute), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported time unit: %s", unit)
	}
}

// ParseDay resolves a day argument in the location of now.
// It accepts yyyy-MM-dd, RFC3339 timestamps, "today", "yesterday" and "N [units] ago".
func ParseDay(s string, now time.Time) (schema.Date, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return schema.Date{}, errors.New("empty date")
	case "today":
		return schema.NewDate(now), nil
	case "yesterday":
		return schema.NewDate(now.AddDate(0, 0, -1)), nil
	}

	if d, err := schema.ParseDate(s, now.Location()); err == nil {
		return d, nil
	}
	if t, err := time.Parse(DateTimeFormat, s); err == nil {
		return schema.NewDate(t.In(now.Location())), nil
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return schema.Date{}, err
	}
	return schema.NewDate(t), nil
}

// Define the regular expression to capture "N [units]".
var lookbackDurationRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?$`)

// ParseLookbackDuration converts strings like "2 days" or "12h" into a single time.Duration.
// It first tries Go's built-in time.ParseDuration for standard formats, then falls back
// to custom parsing for human-readable formats.
func ParseLookbackDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if duration, err := time.ParseDuration(s); err == nil {
		if duration <= 0 {
			return 0, errors.New("duration must be positive")
		}
		return duration, nil
	}

	s = strings.ToLower(s)
	matches := lookbackDurationRe.FindStringSubmatch(strings.Join(strings.Fields(s), " "))
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	value, _ := strconv.Atoi(matches[1])
	unit := matches[2]

	const day = 24 * time.Hour
	var total time.Duration
	switch unit {
	case "year":
		// Approximation: 1 year ≈ 365 days
		total = time.Duration(value) * 365 * day
	case "month":
		// Approximation: 1 month ≈ 30 days
		total = time.Duration(value) * 30 * day
	case "week":
		total = time.Duration(value) * 7 * day
	case "day":
		total = time.Duration(value) * day
	case "hour":
		total = time.Duration(value) * time.Hour
	case "minute":
		total = time.Duration(value) * time.Minute
	}

	if total == 0 {
		return 0, errors.New("zero duration is not useful")
	}
	return total, nil
}

// DaysBetween returns the number of calendar days from start to end.
func DaysBetween(start, end schema.Date) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	days := int(e.Sub(s) / (24 * time.Hour))
	return max(days, 0)
}

// StartOfNextDay returns midnight of the day after d in d's location.
func StartOfNextDay(d schema.Date) time.Time {
	return d.AddDate(0, 0, 1)
}
