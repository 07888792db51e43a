package core

import (
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// Window is the scoring window of one calendar day.
type Window struct {
	Date  schema.Date
	Start time.Time
	End   time.Time

	// Intraday marks today's window, which ends at the current instant and includes it.
	// Every other window ends at the next midnight, exclusive.
	Intraday bool
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	if w.Intraday {
		return !t.After(w.End)
	}
	return t.Before(w.End)
}

// DayWindows returns one window per calendar day from start to end inclusive, oldest first.
// Days are computed in the location of now. A range that reaches past today is invalid.
func DayWindows(start, end schema.Date, now time.Time) ([]Window, error) {
	if start.IsZero() || end.IsZero() {
		return nil, contract.NewInvalidInputf("start and end dates are required")
	}
	loc := now.Location()
	first, last := dayIn(start, loc), dayIn(end, loc)
	today := schema.NewDate(now)

	if first.After(last.Time) {
		return nil, contract.NewInvalidInputf("start date %s is after end date %s", first, last)
	}
	if last.After(today.Time) {
		return nil, contract.NewInvalidInputf("end date %s is after today %s", last, today)
	}
	if days := contract.DaysBetween(first, last) + 1; days > contract.MaxRangeDays {
		return nil, contract.NewInvalidInputf("date range cannot exceed %d days (received %d)", contract.MaxRangeDays, days)
	}

	var windows []Window
	for day := first; !day.After(last.Time); day.Time = contract.StartOfNextDay(day) {
		w := Window{Date: day, Start: day.Time, End: contract.StartOfNextDay(day)}
		if day.Equal(today.Time) {
			w.End = now
			w.Intraday = true
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// dayIn re-anchors the calendar day of d at midnight in loc.
func dayIn(d schema.Date, loc *time.Location) schema.Date {
	y, m, day := d.Date()
	return schema.Date{Time: time.Date(y, m, day, 0, 0, 0, 0, loc)}
}
