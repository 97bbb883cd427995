package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"adpulse/internal/insights"
)

// WriteReport renders a refresh as a printable report: a totals summary
// block (with period-over-period deltas when the refresh compared), a daily
// table, and any annotation notes matched to their day.
func WriteReport(w io.Writer, report *insights.Report, metrics []insights.Metric, annotations []Annotation) error {
	if err := writeTotals(w, report, metrics); err != nil {
		return err
	}
	if err := writeDaily(w, report.Daily, metrics, annotationsByDate(annotations)); err != nil {
		return err
	}
	return nil
}

func writeTotals(w io.Writer, report *insights.Report, metrics []insights.Metric) error {
	if _, err := fmt.Fprintln(w, "Totals"); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	for _, metric := range metrics {
		line := fmt.Sprintf("%s\t%s", metric.Label, metric.Format(report.Totals.Value(metric.Key)))
		if delta, ok := report.Deltas[metric.Key]; ok {
			line += "\t" + formatDelta(delta)
		} else if report.Deltas != nil {
			line += "\tn/a"
		}
		if _, err := fmt.Fprintln(tw, line); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func formatDelta(delta insights.Delta) string {
	marker := "worse"
	if delta.Improved {
		marker = "better"
	}
	return fmt.Sprintf("%+.1f%% (%s)", delta.Percent, marker)
}

func writeDaily(w io.Writer, rows []insights.Row, metrics []insights.Metric, notes map[string][]string) error {
	if _, err := fmt.Fprintln(w, "Daily"); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)

	headers := make([]string, 0, len(metrics)+1)
	headers = append(headers, "Date")
	for _, metric := range metrics {
		headers = append(headers, metric.Label)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		values := make([]string, 0, len(metrics)+1)
		values = append(values, row.Label)
		for _, metric := range metrics {
			values = append(values, metric.Format(row.Value(metric.Key)))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(values, "\t")); err != nil {
			return err
		}
		for _, note := range notes[row.Date] {
			if _, err := fmt.Fprintf(tw, "  note: %s\n", note); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

// WriteEntityTable renders breakdown rows (campaigns, ad sets, ads) the
// same way as the daily table, keyed by entity name instead of date.
func WriteEntityTable(w io.Writer, title string, rows []insights.Row, metrics []insights.Metric) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)

	headers := make([]string, 0, len(metrics)+1)
	headers = append(headers, "Name")
	for _, metric := range metrics {
		headers = append(headers, metric.Label)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		values := make([]string, 0, len(metrics)+1)
		values = append(values, row.Name)
		for _, metric := range metrics {
			values = append(values, metric.Format(row.Value(metric.Key)))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(values, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
