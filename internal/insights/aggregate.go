package insights

// Totals is the per-metric reduction of a row sequence. The reduction rule
// is not uniform across metrics; this file is the single source of truth
// for it:
//
//	spend, conversions, impressions, reach,
//	linkClicks, addToCart, checkouts, revenue   sum across rows
//	cpm                                         sum(spend)/sum(impressions)*1000
//	cpc                                         mean over rows with cpc > 0 only
//	ctr                                         mean over all rows
//	conversionCost                              sum(spend)/sum(conversions)
//	roas                                        sum(revenue)/sum(spend)
//
// Every ratio reads 0 when its denominator is 0. Note the asymmetry
// between cpc (nonzero rows only) and ctr (all rows): observed upstream
// behavior, preserved deliberately.
type Totals struct {
	Spend          float64
	Conversions    float64
	ConversionCost float64
	Impressions    float64
	Reach          float64
	CPM            float64
	CPC            float64
	CTR            float64
	LinkClicks     float64
	AddToCart      float64
	Checkouts      float64
	Revenue        float64
	ROAS           float64
}

// Value returns the totals field behind a metric key.
func (t Totals) Value(key string) float64 {
	switch key {
	case "spend":
		return t.Spend
	case "conversions":
		return t.Conversions
	case "conversionCost":
		return t.ConversionCost
	case "impressions":
		return t.Impressions
	case "reach":
		return t.Reach
	case "cpm":
		return t.CPM
	case "cpc":
		return t.CPC
	case "ctr":
		return t.CTR
	case "linkClicks":
		return t.LinkClicks
	case "addToCart":
		return t.AddToCart
	case "checkouts":
		return t.Checkouts
	case "revenue":
		return t.Revenue
	case "roas":
		return t.ROAS
	default:
		return 0
	}
}

// Aggregate reduces a row sequence to one Totals record. An empty sequence
// yields all zeros, never an error.
func Aggregate(rows []Row) Totals {
	var t Totals
	var ctrSum, cpcSum float64
	var cpcCount int

	for _, row := range rows {
		t.Spend += row.Spend
		t.Conversions += row.Conversions
		t.Impressions += row.Impressions
		t.Reach += row.Reach
		t.LinkClicks += row.LinkClicks
		t.AddToCart += row.AddToCart
		t.Checkouts += row.Checkouts
		t.Revenue += row.Revenue

		ctrSum += row.CTR
		if row.CPC > 0 {
			cpcSum += row.CPC
			cpcCount++
		}
	}

	if t.Impressions > 0 {
		t.CPM = t.Spend / t.Impressions * 1000
	}
	if cpcCount > 0 {
		t.CPC = cpcSum / float64(cpcCount)
	}
	if len(rows) > 0 {
		t.CTR = ctrSum / float64(len(rows))
	}
	if t.Conversions > 0 {
		t.ConversionCost = t.Spend / t.Conversions
	}
	if t.Spend > 0 {
		t.ROAS = t.Revenue / t.Spend
	}

	return t
}
