package insights

import (
	"math"
	"testing"
	"time"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestPreviousPeriodWeek(t *testing.T) {
	t.Parallel()

	prevStart, prevEnd := PreviousPeriod(day(t, "2024-01-08"), day(t, "2024-01-14"))
	if got := prevStart.Format(dateLayout); got != "2024-01-01" {
		t.Fatalf("prev start: got %s", got)
	}
	if got := prevEnd.Format(dateLayout); got != "2024-01-07" {
		t.Fatalf("prev end: got %s", got)
	}
}

func TestPreviousPeriodSingleDay(t *testing.T) {
	t.Parallel()

	prevStart, prevEnd := PreviousPeriod(day(t, "2024-03-10"), day(t, "2024-03-10"))
	if prevStart.Format(dateLayout) != "2024-03-09" || prevEnd.Format(dateLayout) != "2024-03-09" {
		t.Fatalf("got %s..%s", prevStart.Format(dateLayout), prevEnd.Format(dateLayout))
	}
}

func TestCompareComputesSignedPercentDeltas(t *testing.T) {
	t.Parallel()

	metrics := MetricsFor(VerticalApp, "app_install")
	curr := Totals{Spend: 150, Conversions: 30, ConversionCost: 5}
	prev := Totals{Spend: 100, Conversions: 40, ConversionCost: 2.5}

	deltas := Compare(curr, prev, metrics)

	spend, ok := deltas["spend"]
	if !ok {
		t.Fatal("expected spend delta")
	}
	if math.Abs(spend.Percent-50) > 1e-9 || !spend.Improved {
		t.Fatalf("spend delta: %+v", spend)
	}

	conversions := deltas["conversions"]
	if math.Abs(conversions.Percent-(-25)) > 1e-9 || conversions.Improved {
		t.Fatalf("conversions delta: %+v", conversions)
	}

	cost := deltas["conversionCost"]
	if math.Abs(cost.Percent-100) > 1e-9 {
		t.Fatalf("conversionCost delta: %+v", cost)
	}
	if cost.Improved {
		t.Fatal("rising cost must not count as improvement")
	}
}

func TestCompareCostMetricsImproveWhenFalling(t *testing.T) {
	t.Parallel()

	metrics := MetricsFor(VerticalApp, "app_install")
	deltas := Compare(Totals{CPM: 8, CPC: 0.4, ConversionCost: 1}, Totals{CPM: 10, CPC: 0.5, ConversionCost: 2}, metrics)
	for _, key := range []string{"cpm", "cpc", "conversionCost"} {
		delta, ok := deltas[key]
		if !ok {
			t.Fatalf("expected %s delta", key)
		}
		if delta.Percent >= 0 || !delta.Improved {
			t.Fatalf("%s: falling cost must be improvement: %+v", key, delta)
		}
	}
}

func TestCompareUndefinedWhenPreviousIsZero(t *testing.T) {
	t.Parallel()

	metrics := MetricsFor(VerticalEcom, "purchase")
	deltas := Compare(Totals{Spend: 100, Revenue: 50}, Totals{}, metrics)
	if len(deltas) != 0 {
		t.Fatalf("deltas over a zero previous period must be absent, got %+v", deltas)
	}
}

func TestLowerIsBetterSet(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"conversionCost", "cpm", "cpc"} {
		if !LowerIsBetter(key) {
			t.Fatalf("%s must be lower-is-better", key)
		}
	}
	for _, key := range []string{"spend", "conversions", "roas", "ctr", "revenue"} {
		if LowerIsBetter(key) {
			t.Fatalf("%s must be higher-is-better", key)
		}
	}
}
