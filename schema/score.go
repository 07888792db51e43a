package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the calendar day layout used in historical entries.
const DateFormat = "2006-01-02"

// Score is a fragmentation score that always serializes with one decimal place.
type Score float64

// Float returns the raw value.
func (s Score) Float() float64 { return float64(s) }

// String renders the score with one decimal place.
func (s Score) String() string {
	return strconv.FormatFloat(float64(s), 'f', 1, 64)
}

// MarshalJSON writes the score as a plain decimal number, never exponential.
func (s Score) MarshalJSON() ([]byte, error) {
	v := float64(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("cannot encode non-finite score %v", v)
	}
	return []byte(s.String()), nil
}

// UnmarshalJSON accepts any JSON number and keeps one decimal place.
func (s *Score) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid score: %w", err)
	}
	*s = Score(math.Round(v*10) / 10)
	return nil
}

// Date is a calendar day serialized as yyyy-MM-dd.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight in its own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// ParseDate parses a yyyy-MM-dd string in the given location.
func ParseDate(s string, loc *time.Location) (Date, error) {
	t, err := time.ParseInLocation(DateFormat, strings.TrimSpace(s), loc)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// String renders the day as yyyy-MM-dd.
func (d Date) String() string {
	return d.Format(DateFormat)
}

// MarshalJSON writes the day as a yyyy-MM-dd string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON reads a yyyy-MM-dd string in UTC.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Breakdown holds the factor counts that contributed to a score.
type Breakdown struct {
	IssueUpdates   int  `json:"issueUpdates"`
	Meetings       int  `json:"meetings"`
	SourceSwitches int  `json:"sourceSwitches"`
	TypeSwitches   int  `json:"typeSwitches"`
	MultiPlatform  bool `json:"multiPlatform"`
	DensityBonus   bool `json:"densityBonus"`
}

// Empty reports whether no factor contributed.
func (b Breakdown) Empty() bool {
	return b == Breakdown{}
}

// ScoreResult is the outcome of scoring one user's activities over one window.
type ScoreResult struct {
	UserID             string    `json:"userId"`
	FragmentationScore Score     `json:"fragmentationScore"`
	Summary            string    `json:"summary"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	ActivitiesCount    int       `json:"activitiesCount"`
	WindowDays         int       `json:"windowDays,omitempty"`
	MeetingMinutes     float64   `json:"meetingMinutes,omitempty"`
	Breakdown          Breakdown `json:"breakdown"`
}

// HistoricalScore is one day in a trend series.
type HistoricalScore struct {
	Date            Date      `json:"date"`
	Score           Score     `json:"score"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	Summary         string    `json:"summary"`
	ActivitiesCount int       `json:"activitiesCount"`
}

// RollingPoint is a trailing average ending on Date.
type RollingPoint struct {
	Date    Date  `json:"date"`
	Average Score `json:"average"`
	Samples int   `json:"samples"`
}

// DayFailure records a day that could not be scored.
type DayFailure struct {
	Date  Date   `json:"date"`
	Error string `json:"error"`
}

// TrendResult is the per-day history of one user over a date range.
type TrendResult struct {
	UserID          string            `json:"userId"`
	StartDate       Date              `json:"startDate"`
	EndDate         Date              `json:"endDate"`
	Scores          []HistoricalScore `json:"scores"`
	Average         *Score            `json:"average"`
	RollingAverages []RollingPoint    `json:"rollingAverages,omitempty"`
	Failures        []DayFailure      `json:"failures,omitempty"`
	Warning         string            `json:"warning,omitempty"`
	Anomaly         *AnomalyResult    `json:"anomaly,omitempty"`
}

// Series projects the trend onto its numeric score series.
func (t TrendResult) Series() []float64 {
	out := make([]float64, len(t.Scores))
	for i, s := range t.Scores {
		out[i] = s.Score.Float()
	}
	return out
}

// AnomalyResult reports whether a score series holds a statistically significant spike.
type AnomalyResult struct {
	IsAnomaly    bool    `json:"isAnomaly"`
	AnomalyIndex *int    `json:"anomalyIndex,omitempty"`
	Message      string  `json:"message"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"stdDev"`
	Threshold    float64 `json:"threshold"`
	Date         *Date   `json:"date,omitempty"`
}

// TeamDayAverage is the team-wide average for one day.
type TeamDayAverage struct {
	Date        Date  `json:"date"`
	Average     Score `json:"average"`
	MemberCount int   `json:"memberCount"`
}

// MemberFailure records a team member whose trend could not be built.
type MemberFailure struct {
	UserID string `json:"userId"`
	Error  string `json:"error"`
}

// TeamTrendResult aggregates trends across several users.
type TeamTrendResult struct {
	StartDate Date             `json:"startDate"`
	EndDate   Date             `json:"endDate"`
	Members   []TrendResult    `json:"members"`
	Daily     []TeamDayAverage `json:"daily"`
	Average   *Score           `json:"average"`
	Failures  []MemberFailure  `json:"failures,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

// CheckViolation is a user whose score reached the gate.
type CheckViolation struct {
	UserID    string    `json:"userId"`
	Score     Score     `json:"score"`
	RiskLevel RiskLevel `json:"riskLevel"`
}

// CheckResult is the outcome of gating several users against a threshold.
type CheckResult struct {
	Threshold  float64          `json:"threshold"`
	WindowDays int              `json:"windowDays"`
	Results    []ScoreResult    `json:"results"`
	Violations []CheckViolation `json:"violations"`
	Failures   []MemberFailure  `json:"failures,omitempty"`
	Passed     bool             `json:"passed"`
}
