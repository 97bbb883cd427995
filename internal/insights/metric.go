package insights

import (
	"fmt"
	"math"
	"strings"
)

// Formatter renders a metric value for display and export.
type Formatter func(float64) string

// Metric describes one reportable measure: its row/totals key, display
// label, formatter, and a color hint for charting callers.
type Metric struct {
	Key    string
	Label  string
	Format Formatter
	Color  string
}

func FormatCurrency(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func FormatCount(v float64) string {
	return groupThousands(int64(math.Trunc(v)))
}

func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func FormatROAS(v float64) string {
	return fmt.Sprintf("%.2fx", v)
}

func groupThousands(v int64) string {
	digits := fmt.Sprintf("%d", v)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	return sign + strings.Join(groups, ",")
}

// sharedMetrics is the tail every vertical reports, in display order.
func sharedMetrics() []Metric {
	return []Metric{
		{Key: "spend", Label: "Spend", Format: FormatCurrency, Color: "#6366f1"},
		{Key: "impressions", Label: "Impressions", Format: FormatCount, Color: "#3b82f6"},
		{Key: "reach", Label: "Reach", Format: FormatCount, Color: "#8b5cf6"},
		{Key: "cpm", Label: "CPM", Format: FormatCurrency, Color: "#ec4899"},
		{Key: "cpc", Label: "CPC", Format: FormatCurrency, Color: "#14b8a6"},
		{Key: "ctr", Label: "CTR", Format: FormatPercent, Color: "#f97316"},
	}
}

func conversionLabels(conversionEvent string) (string, string) {
	switch conversionEvent {
	case "complete_registration":
		return "Registrations", "Cost per Registration"
	case "lead":
		return "Leads", "Cost per Lead"
	case "purchase":
		return "Purchases", "Cost per Purchase"
	default:
		return "Conversions", "CPA"
	}
}

// MetricsFor returns the fixed, ordered metric list for a vertical. Order
// drives display and the exporter's column layout, so it is part of the
// contract.
func MetricsFor(v Vertical, conversionEvent string) []Metric {
	convLabel, costLabel := conversionLabels(conversionEvent)
	switch v {
	case VerticalApp:
		return append([]Metric{
			{Key: "conversions", Label: "Installs", Format: FormatCount, Color: "#10b981"},
			{Key: "conversionCost", Label: "CPI", Format: FormatCurrency, Color: "#f59e0b"},
		}, sharedMetrics()...)
	case VerticalLead:
		return append([]Metric{
			{Key: "conversions", Label: convLabel, Format: FormatCount, Color: "#10b981"},
			{Key: "conversionCost", Label: costLabel, Format: FormatCurrency, Color: "#f59e0b"},
			{Key: "linkClicks", Label: "Link Clicks", Format: FormatCount, Color: "#a78bfa"},
		}, sharedMetrics()...)
	case VerticalEcom:
		return append([]Metric{
			{Key: "conversions", Label: "Purchases", Format: FormatCount, Color: "#10b981"},
			{Key: "conversionCost", Label: "Cost per Purchase", Format: FormatCurrency, Color: "#f59e0b"},
			{Key: "revenue", Label: "Revenue", Format: FormatCurrency, Color: "#34d399"},
			{Key: "roas", Label: "ROAS", Format: FormatROAS, Color: "#fbbf24"},
			{Key: "addToCart", Label: "Add to Carts", Format: FormatCount, Color: "#60a5fa"},
			{Key: "checkouts", Label: "Checkouts", Format: FormatCount, Color: "#a78bfa"},
		}, sharedMetrics()...)
	default:
		return sharedMetrics()
	}
}
