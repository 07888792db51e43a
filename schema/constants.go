// Package schema has the shared data types of the scoring engine and its outputs.
package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// Source identifies the integration an activity came from.
	Source string

	// StatusCategory is the issue-tracker status bucket of an issue activity.
	StatusCategory string

	// ActivityKind is the semantic class derived from an activity type tag.
	ActivityKind string

	// RiskLevel represents the risk band derived from a fragmentation score.
	RiskLevel string

	// FactorKey names a contributing factor in a score breakdown.
	FactorKey string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All activity sources supported.
const (
	TeamsSource Source = "teams"
	JiraSource  Source = "jira"
	M365Source  Source = "m365"
	OtherSource Source = "other"
)

// All issue status categories supported.
const (
	StatusNew           StatusCategory = "new"
	StatusIndeterminate StatusCategory = "indeterminate"
	StatusDone          StatusCategory = "done"
)

// Activity kinds recognized by the scoring engine.
const (
	PresenceKind    ActivityKind = "presence"
	MeetingKind     ActivityKind = "meeting"
	IssueUpdateKind ActivityKind = "issue_update"
	OtherKind       ActivityKind = "other"
)

// Risk levels in ascending order.
const (
	LowRisk      RiskLevel = "Low"
	ModerateRisk RiskLevel = "Moderate"
	HighRisk     RiskLevel = "High"
)

// Factor keys in the order they appear in summaries.
const (
	FactorIssueUpdates   FactorKey = "issue_updates"
	FactorMeetings       FactorKey = "meetings"
	FactorSourceSwitches FactorKey = "source_switches"
	FactorTypeSwitches   FactorKey = "type_switches"
	FactorMultiPlatform  FactorKey = "multi_platform"
	FactorDensity        FactorKey = "density"
)

// AllFactors lists the factor keys in summary order.
var AllFactors = []FactorKey{
	FactorIssueUpdates,
	FactorMeetings,
	FactorSourceSwitches,
	FactorTypeSwitches,
	FactorMultiPlatform,
	FactorDensity,
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSources lists all valid activity sources.
var ValidSources = map[Source]struct{}{
	TeamsSource: {},
	JiraSource:  {},
	M365Source:  {},
	OtherSource: {},
}

// ValidStatusCategories lists all valid issue status categories.
var ValidStatusCategories = map[StatusCategory]struct{}{
	StatusNew:           {},
	StatusIndeterminate: {},
	StatusDone:          {},
}
