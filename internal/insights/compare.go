package insights

import "time"

// PreviousPeriod derives the immediately preceding, contiguous,
// non-overlapping range of the same length as [start, end] inclusive.
func PreviousPeriod(start, end time.Time) (time.Time, time.Time) {
	days := int(end.Sub(start).Hours()/24) + 1
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(days - 1))
	return prevStart, prevEnd
}

// Delta is one period-over-period movement. Percent is signed; Improved
// folds in the metric's directionality (for cost metrics a negative delta
// is the improvement).
type Delta struct {
	Percent  float64
	Improved bool
}

var lowerIsBetter = map[string]struct{}{
	"conversionCost": {},
	"cpm":            {},
	"cpc":            {},
}

// LowerIsBetter reports whether a negative delta counts as improvement for
// the metric key.
func LowerIsBetter(key string) bool {
	_, ok := lowerIsBetter[key]
	return ok
}

// Compare computes percent deltas between two totals for the given metric
// set. A metric whose previous value is not positive has no entry at all:
// the delta is undefined, not zero or infinite, and callers must render it
// as absent.
func Compare(curr, prev Totals, metrics []Metric) map[string]Delta {
	deltas := make(map[string]Delta, len(metrics))
	for _, metric := range metrics {
		prevValue := prev.Value(metric.Key)
		if prevValue <= 0 {
			continue
		}
		percent := (curr.Value(metric.Key) - prevValue) / prevValue * 100
		improved := percent > 0
		if LowerIsBetter(metric.Key) {
			improved = percent < 0
		}
		deltas[metric.Key] = Delta{Percent: percent, Improved: improved}
	}
	return deltas
}
