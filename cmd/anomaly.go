package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/spf13/cobra"
)

// anomalyCmd runs the detector over a literal score series.
var anomalyCmd = &cobra.Command{
	Use:   "anomaly [value...]",
	Short: "Detect an anomalous value in a numeric series",
	Long: `Flag the first value that exceeds the series mean by more than
--anomaly-threshold standard deviations.

Values are given as arguments (space or comma separated) or read from --input,
which accepts a JSON array or whitespace separated numbers. Use --input - for stdin.

Examples:
  # Inline series
  fragmeter anomaly 1.2 1.4 1.1 4.8 1.3

  # Series from a file with a stricter threshold
  fragmeter anomaly --input scores.json --anomaly-threshold 1.5`,
	PreRunE: sharedSetupNoUsers,
	Run: func(cmd *cobra.Command, args []string) {
		inputPath, _ := cmd.Flags().GetString("input")
		series, err := readSeries(args, inputPath, cmd.InOrStdin())
		if err != nil {
			contract.LogFatal("Cannot read series", err)
		}
		if err := core.ExecuteAnomaly(rootCtx, cfg, series); err != nil {
			contract.LogFatal("Cannot run anomaly detection", err)
		}
	},
}

// readSeries collects the series from args, or from inputPath when it is set.
func readSeries(args []string, inputPath string, stdin io.Reader) ([]float64, error) {
	if inputPath == "" {
		return parseSeries(strings.Join(args, " "))
	}
	if len(args) > 0 {
		return nil, contract.NewInvalidInputf("pass values either as arguments or with --input, not both")
	}

	r := stdin
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", inputPath, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read series: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, "[") {
		var series []float64
		if err := json.Unmarshal([]byte(text), &series); err != nil {
			return nil, contract.NewInvalidInput("malformed series JSON", err)
		}
		return series, nil
	}
	return parseSeries(text)
}

// parseSeries parses numbers separated by whitespace or commas.
func parseSeries(text string) ([]float64, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
	series := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, contract.NewInvalidInputf("invalid series value %q", field)
		}
		series = append(series, v)
	}
	return series, nil
}
