package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/fragmeter/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// Without an output file the writer receives the configured stdout.
func (ow *OutWriter) writeWithFile(writer func(io.Writer) error, successMsg string) error {
	if ow.cfg.OutputFile == "" {
		return writer(ow.stdout)
	}

	file, err := os.Create(ow.cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writer(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	_, _ = fmt.Fprintf(ow.stderr, "💾 %s to %s\n", successMsg, ow.cfg.OutputFile)
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// createFormatter creates the score formatter closure used across output types.
func createFormatter(precision int) func(float64) string {
	if precision < 1 {
		precision = 1
	}
	return func(v float64) string {
		return fmt.Sprintf("%.*f", precision, v)
	}
}

// formatAverage renders a missing average as "n/a".
func formatAverage(avg *schema.Score, fmtFloat func(float64) string) string {
	if avg == nil {
		return "n/a"
	}
	return fmtFloat(avg.Float())
}

func errUnsupportedParquet(kind string) error {
	return fmt.Errorf("parquet output is not supported for %s results; use json or csv", kind)
}
