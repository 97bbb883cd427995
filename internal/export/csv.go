package export

import (
	"encoding/csv"
	"io"

	"adpulse/internal/insights"
)

// WriteCSV renders daily rows as CSV: a Date column followed by one column
// per metric, values rendered through each metric's own formatter so the
// file matches what the report command displays.
func WriteCSV(w io.Writer, rows []insights.Row, metrics []insights.Metric) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(metrics)+1)
	header = append(header, "Date")
	for _, metric := range metrics {
		header = append(header, metric.Label)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, 0, len(metrics)+1)
		record = append(record, row.Date)
		for _, metric := range metrics {
			record = append(record, metric.Format(row.Value(metric.Key)))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
