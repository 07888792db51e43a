package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// NoAnomalyMessage is reported when no value exceeds the bound.
const NoAnomalyMessage = "No significant spikes detected."

// statPlaces is the precision used when reporting series statistics.
const statPlaces = 3

// MeanStdDev returns the arithmetic mean and the population standard deviation.
func MeanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sumSq float64
	for _, v := range values {
		d := v - mean
		// Explicit conversion prevents fused multiply-add on some architectures.
		sumSq += float64(d * d)
	}
	return mean, math.Sqrt(sumSq / n)
}

// DetectAnomaly flags the first value above mean + threshold*stddev.
// The first hit is reported, not the largest one.
func DetectAnomaly(series []float64, threshold float64) (schema.AnomalyResult, error) {
	if len(series) == 0 {
		return schema.AnomalyResult{}, contract.NewInvalidInputf("anomaly detection needs at least one value")
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return schema.AnomalyResult{}, contract.NewInvalidInputf("threshold must be a finite non-negative number, got %v", threshold)
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return schema.AnomalyResult{}, contract.NewInvalidInputf("series value at index %d is not finite", i)
		}
	}

	mean, sd := MeanStdDev(series)
	bound := mean + float64(threshold*sd)

	result := schema.AnomalyResult{
		Message:   NoAnomalyMessage,
		Mean:      RoundTo(mean, statPlaces),
		StdDev:    RoundTo(sd, statPlaces),
		Threshold: RoundTo(threshold, statPlaces),
	}
	for i, v := range series {
		if v > bound {
			idx := i
			result.IsAnomaly = true
			result.AnomalyIndex = &idx
			result.Message = fmt.Sprintf("Value %.1f at index %d exceeds mean %.2f + %.1f stddev (%.2f).", v, i, mean, threshold, bound)
			break
		}
	}
	return result, nil
}
