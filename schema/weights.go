package schema

// Weights are the per-factor increments used by the scoring engine.
type Weights struct {
	Meeting       float64 `json:"meeting"`
	IssueUpdate   float64 `json:"issueUpdate"`
	SourceSwitch  float64 `json:"sourceSwitch"`
	TypeSwitch    float64 `json:"typeSwitch"`
	MultiPlatform float64 `json:"multiPlatform"`
	Density       float64 `json:"density"`

	// DensityPerDay is the per-day activity count above which the density bonus applies.
	DensityPerDay int `json:"densityPerDay"`

	// MultiPlatformSources is the distinct source count that must be exceeded for the bonus.
	MultiPlatformSources int `json:"multiPlatformSources"`
}

// Fixed scoring bounds.
const (
	MinScore   = 0.0
	MaxScore   = 5.0
	FloorScore = 0.1
)

// Default thresholds.
const (
	DefaultAnomalyThreshold = 2.0
	DefaultRollingWindow    = 7
	DefaultCheckThreshold   = 3.5
)

// FallbackScores are the best-effort scores used when computation produces a non-finite value.
type FallbackScores struct {
	Empty  float64 `json:"empty"`
	Active float64 `json:"active"`
}

// DefaultWeights returns the standard weights.
func DefaultWeights() Weights {
	return Weights{
		Meeting:              0.4,
		IssueUpdate:          1.0,
		SourceSwitch:         0.25,
		TypeSwitch:           0.1,
		MultiPlatform:        0.5,
		Density:              0.3,
		DensityPerDay:        5,
		MultiPlatformSources: 2,
	}
}

// DefaultFallbackScores returns the standard fallback constants.
func DefaultFallbackScores() FallbackScores {
	return FallbackScores{Empty: 2.0, Active: 4.0}
}
