package algo

import (
	"math"
	"testing"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomaly(t *testing.T) {
	tests := []struct {
		name      string
		series    []float64
		threshold float64
		anomaly   bool
		index     int
	}{
		{name: "spike at the bound is not an anomaly", series: []float64{1, 1, 1, 1, 10}, threshold: 2.0},
		{name: "spike above the bound", series: []float64{1, 1, 1, 1, 1, 1, 10}, threshold: 2.0, anomaly: true, index: 6},
		{name: "single value", series: []float64{4.2}, threshold: 2.0},
		{name: "flat series", series: []float64{2, 2, 2, 2}, threshold: 0},
		{name: "first hit wins over the largest", series: []float64{0, 0, 0, 0, 0, 0, 0, 0, 5, 6}, threshold: 1.0, anomaly: true, index: 8},
		{name: "zero threshold", series: []float64{1, 2}, threshold: 0, anomaly: true, index: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DetectAnomaly(tt.series, tt.threshold)
			require.NoError(t, err)

			assert.Equal(t, tt.anomaly, result.IsAnomaly)
			if tt.anomaly {
				require.NotNil(t, result.AnomalyIndex)
				assert.Equal(t, tt.index, *result.AnomalyIndex)
				assert.Contains(t, result.Message, "exceeds mean")
			} else {
				assert.Nil(t, result.AnomalyIndex)
				assert.Equal(t, NoAnomalyMessage, result.Message)
			}
		})
	}
}

func TestDetectAnomalyStatistics(t *testing.T) {
	result, err := DetectAnomaly([]float64{1, 1, 1, 1, 10}, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 2.8, result.Mean)
	assert.Equal(t, 3.6, result.StdDev)
	assert.Equal(t, 2.0, result.Threshold)

	mean, sd := MeanStdDev([]float64{1, 1, 1, 1, 1, 1, 10})
	assert.InDelta(t, 2.2857, mean, 0.001)
	assert.InDelta(t, 3.1493, sd, 0.001)
}

func TestDetectAnomalyInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		series    []float64
		threshold float64
	}{
		{"empty series", nil, 2.0},
		{"negative threshold", []float64{1, 2}, -1},
		{"nan threshold", []float64{1, 2}, math.NaN()},
		{"infinite value", []float64{1, math.Inf(1)}, 2.0},
		{"nan value", []float64{math.NaN()}, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DetectAnomaly(tt.series, tt.threshold)
			require.Error(t, err)
			assert.True(t, contract.IsInvalidInput(err))
		})
	}
}
