package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/fragmeter/schema"
)

// writeAnomalyText prints the detector statistics and verdict.
func writeAnomalyText(w io.Writer, series []float64, result schema.AnomalyResult) error {
	lines := []struct {
		label string
		value string
	}{
		{"Series:", fmt.Sprint(series)},
		{"Mean:", strconv.FormatFloat(result.Mean, 'f', -1, 64)},
		{"Std Dev:", strconv.FormatFloat(result.StdDev, 'f', -1, 64)},
		{"Threshold:", strconv.FormatFloat(result.Threshold, 'f', -1, 64)},
	}
	if _, err := fmt.Fprintln(w, "Anomaly Detection:"); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "  %-11s %s\n", l.label, l.value); err != nil {
			return err
		}
	}
	if result.IsAnomaly && result.AnomalyIndex != nil {
		if _, err := fmt.Fprintf(w, "  %-11s %d\n", "Index:", *result.AnomalyIndex); err != nil {
			return err
		}
	}
	return writeAnomalyLine(w, &result)
}

// writeAnomalyCSV writes one row per series value, flagging the anomalous entry.
func writeAnomalyCSV(w io.Writer, series []float64, result schema.AnomalyResult) error {
	header := []string{"index", "value", "is_anomaly", "mean", "std_dev", "threshold"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, v := range series {
			flagged := result.AnomalyIndex != nil && *result.AnomalyIndex == i
			rec := []string{
				strconv.Itoa(i),
				strconv.FormatFloat(v, 'f', -1, 64),
				strconv.FormatBool(flagged),
				strconv.FormatFloat(result.Mean, 'f', -1, 64),
				strconv.FormatFloat(result.StdDev, 'f', -1, 64),
				strconv.FormatFloat(result.Threshold, 'f', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
