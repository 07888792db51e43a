package core

import (
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/mock"
)

// testNow is the fixed "current instant" used by the aggregator tests.
var testNow = time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func date(d int) schema.Date {
	return schema.NewDate(day(d))
}

// testConfig covers June 1-5 with testNow on June 5.
func testConfig() *contract.Config {
	return &contract.Config{
		Location:         time.UTC,
		Now:              testNow,
		StartDate:        date(1),
		EndDate:          date(5),
		WindowDays:       1,
		Workers:          3,
		RollingWindow:    schema.DefaultRollingWindow,
		AnomalyThreshold: schema.DefaultAnomalyThreshold,
		CheckThreshold:   schema.DefaultCheckThreshold,
		Weights:          schema.DefaultWeights(),
	}
}

// meetings returns n meetings from one source, hourly from 06:00 of the given day.
func meetings(d time.Time, n int) []schema.ActivityItem {
	items := make([]schema.ActivityItem, n)
	for i := range items {
		items[i] = schema.ActivityItem{
			Type:      "teams_meeting",
			Timestamp: d.Add(time.Duration(6+i) * time.Hour),
			Source:    schema.TeamsSource,
		}
	}
	return items
}

// startsAt matches a window start instant.
func startsAt(t time.Time) any {
	return mock.MatchedBy(func(start time.Time) bool { return start.Equal(t) })
}
