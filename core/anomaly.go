package core

import (
	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/schema"
)

// DetectTrendAnomaly runs the anomaly detector over the daily scores of a trend and
// stamps the date of the flagged day.
func DetectTrendAnomaly(trend *schema.TrendResult, threshold float64) (*schema.AnomalyResult, error) {
	result, err := algo.DetectAnomaly(trend.Series(), threshold)
	if err != nil {
		return nil, err
	}
	if result.AnomalyIndex != nil {
		date := trend.Scores[*result.AnomalyIndex].Date
		result.Date = &date
	}
	return &result, nil
}
