// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"os"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct {
	cfg    *contract.Config
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// NewOutWriter creates an output writer for cfg that prints to the process streams.
func NewOutWriter(cfg *contract.Config) *OutWriter {
	return &OutWriter{cfg: cfg, stdout: os.Stdout, stderr: os.Stderr, now: time.Now}
}

// WithStreams redirects standard output and progress messages.
func (ow *OutWriter) WithStreams(stdout, stderr io.Writer) *OutWriter {
	ow.stdout = stdout
	ow.stderr = stderr
	return ow
}

// WriteScores prints score results using the configured output format.
func (ow *OutWriter) WriteScores(results []schema.ScoreResult, duration time.Duration) error {
	fmtFloat := createFormatter(ow.cfg.Precision)
	switch ow.cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeJSON(w, results) }, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeScoresCSV(w, results, fmtFloat) }, "Wrote CSV")
	case schema.ParquetOut:
		return ow.writeParquetScores(results)
	default:
		return ow.writeWithFile(func(w io.Writer) error {
			return writeScoresTable(w, results, ow.cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// WriteTrends prints one or more user trends using the configured output format.
func (ow *OutWriter) WriteTrends(trends []schema.TrendResult, duration time.Duration) error {
	fmtFloat := createFormatter(ow.cfg.Precision)
	switch ow.cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(func(w io.Writer) error {
			if len(trends) == 1 {
				return writeJSON(w, trends[0])
			}
			return writeJSON(w, trends)
		}, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeTrendsCSV(w, trends, fmtFloat) }, "Wrote CSV")
	case schema.ParquetOut:
		return ow.writeParquetTrends(trends)
	default:
		return ow.writeWithFile(func(w io.Writer) error {
			return writeTrendsText(w, trends, ow.cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// WriteTeam prints a team trend using the configured output format.
func (ow *OutWriter) WriteTeam(result *schema.TeamTrendResult, duration time.Duration) error {
	fmtFloat := createFormatter(ow.cfg.Precision)
	switch ow.cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeJSON(w, result) }, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeTeamCSV(w, result, fmtFloat) }, "Wrote CSV")
	case schema.ParquetOut:
		return ow.writeParquetTrends(result.Members)
	default:
		return ow.writeWithFile(func(w io.Writer) error {
			return writeTeamText(w, result, ow.cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// WriteAnomaly prints a detector result using the configured output format.
func (ow *OutWriter) WriteAnomaly(series []float64, result schema.AnomalyResult) error {
	switch ow.cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeJSON(w, result) }, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeAnomalyCSV(w, series, result) }, "Wrote CSV")
	case schema.ParquetOut:
		return errUnsupportedParquet("anomaly")
	default:
		return ow.writeWithFile(func(w io.Writer) error { return writeAnomalyText(w, series, result) }, "Wrote text")
	}
}

// WriteCheck prints a check gate result using the configured output format.
func (ow *OutWriter) WriteCheck(result *schema.CheckResult, duration time.Duration) error {
	fmtFloat := createFormatter(ow.cfg.Precision)
	switch ow.cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeJSON(w, result) }, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeCheckCSV(w, result, fmtFloat) }, "Wrote CSV")
	case schema.ParquetOut:
		return ow.writeParquetScores(result.Results)
	default:
		return ow.writeWithFile(func(w io.Writer) error { return writeCheckText(w, result, fmtFloat, duration) }, "Wrote text")
	}
}

// WriteWeights prints the scoring factors and their active weights.
func (ow *OutWriter) WriteWeights(weights schema.Weights) error {
	rows := buildWeightRows(weights)
	switch ow.cfg.Output {
	case schema.JSONOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeJSON(w, rows) }, "Wrote JSON")
	case schema.CSVOut:
		return ow.writeWithFile(func(w io.Writer) error { return writeWeightsCSV(w, rows) }, "Wrote CSV")
	case schema.ParquetOut:
		return errUnsupportedParquet("weights")
	default:
		return ow.writeWithFile(func(w io.Writer) error { return writeWeightsText(w, rows) }, "Wrote text")
	}
}
