package insights

import (
	"math"
	"sort"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

const DefaultTopN = 5

// TopN orders entities by one metric and truncates to the first n.
// Zero-spend entities are dropped up front (disabled ads are noise). For
// ascending sorts a zero or absent value sinks to the bottom instead of
// winning as "lowest cost"; descending sorts compare raw values. Ties keep
// their original relative order.
func TopN(rows []Row, key string, direction Direction, n int) []Row {
	if n <= 0 {
		n = DefaultTopN
	}

	ranked := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Spend > 0 {
			ranked = append(ranked, row)
		}
	}

	if direction == Ascending {
		value := func(r Row) float64 {
			v := r.Value(key)
			if v == 0 {
				return math.Inf(1)
			}
			return v
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return value(ranked[i]) < value(ranked[j])
		})
	} else {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Value(key) > ranked[j].Value(key)
		})
	}

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// RankPreset is a named entity ordering offered for a vertical.
type RankPreset struct {
	Key       string
	Direction Direction
	Label     string
}

// RankPresets returns the orderings a vertical's report offers, most
// interesting first.
func RankPresets(v Vertical) []RankPreset {
	spend := RankPreset{Key: "spend", Direction: Descending, Label: "Highest Spend"}
	switch v {
	case VerticalApp:
		return []RankPreset{
			{Key: "conversionCost", Direction: Ascending, Label: "Lowest CPI"},
			{Key: "conversions", Direction: Descending, Label: "Most Installs"},
			spend,
		}
	case VerticalLead:
		return []RankPreset{
			{Key: "conversionCost", Direction: Ascending, Label: "Lowest CPL"},
			{Key: "conversions", Direction: Descending, Label: "Most Leads"},
			spend,
		}
	case VerticalEcom:
		return []RankPreset{
			{Key: "roas", Direction: Descending, Label: "Highest ROAS"},
			{Key: "conversions", Direction: Descending, Label: "Most Purchases"},
			{Key: "revenue", Direction: Descending, Label: "Most Revenue"},
			spend,
		}
	default:
		return []RankPreset{spend}
	}
}
