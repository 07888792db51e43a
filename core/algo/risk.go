package algo

import "github.com/huangsam/fragmeter/schema"

// Risk band boundaries. Each band includes its lower bound.
const (
	ModerateRiskFloor = 2.0
	HighRiskFloor     = 3.5
)

// ClassifyRisk maps a score onto its risk band.
func ClassifyRisk(score float64) schema.RiskLevel {
	switch {
	case score >= HighRiskFloor:
		return schema.HighRisk
	case score >= ModerateRiskFloor:
		return schema.ModerateRisk
	default:
		return schema.LowRisk
	}
}
