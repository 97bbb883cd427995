package insights

import (
	"math"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Row is one normalized per-day or per-entity record. Every numeric field
// defaults to 0 when the raw record carries no matching value, so rows are
// always totally ordered and safe to aggregate or sort.
type Row struct {
	ID           string
	Name         string
	AdsetName    string
	CampaignName string
	Date         string
	Label        string

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

// Value returns the row field behind a metric key. Unknown keys read as 0
// so a bad sort key degrades instead of panicking.
func (r Row) Value(key string) float64 {
	switch key {
	case "spend":
		return r.Spend
	case "conversions":
		return r.Conversions
	case "conversionCost":
		return r.ConversionCost
	case "impressions":
		return r.Impressions
	case "reach":
		return r.Reach
	case "cpm":
		return r.CPM
	case "cpc":
		return r.CPC
	case "ctr":
		return r.CTR
	case "linkClicks":
		return r.LinkClicks
	case "addToCart":
		return r.AddToCart
	case "checkouts":
		return r.Checkouts
	case "revenue":
		return r.Revenue
	case "roas":
		return r.ROAS
	default:
		return 0
	}
}

// ParseRow normalizes one raw insights record. An entity/day with no
// matching action simply reads as 0 for that measure; a malformed numeric
// string never aborts the row.
func ParseRow(raw map[string]any, vertical Vertical, conversionEvent string) Row {
	convAliases := vertical.ConversionAliases(conversionEvent)
	actions := actionList(raw, "actions")
	costs := actionList(raw, "cost_per_action_type")

	spend := numberField(raw, "spend")

	var revenue, roas float64
	if vertical == VerticalEcom {
		if value, ok := findAction(actionList(raw, "action_values"), purchaseAliases); ok {
			revenue = parseNumber(value)
		}
		if spend > 0 {
			roas = revenue / spend
		}
	}

	row := Row{
		ID:           firstString(raw, "ad_id", "adset_id", "campaign_id"),
		Name:         firstString(raw, "ad_name", "adset_name", "campaign_name"),
		AdsetName:    stringField(raw, "adset_name"),
		CampaignName: stringField(raw, "campaign_name"),
		Date:         stringField(raw, "date_start"),

		Spend:       spend,
		Impressions: countField(raw, "impressions"),
		Reach:       countField(raw, "reach"),
		CPM:         numberField(raw, "cpm"),
		CPC:         firstListValue(raw, "cost_per_unique_outbound_click"),
		CTR:         firstListValue(raw, "unique_outbound_clicks_ctr"),
		Revenue:     revenue,
		ROAS:        roas,
	}
	row.Label = DateLabel(row.Date)

	if value, ok := findAction(actions, convAliases); ok {
		row.Conversions = parseCount(value)
	}
	// The upstream cost-per-action is the source of truth; it may be
	// computed on a different attribution window than the raw count, so
	// it is never recomputed from spend/conversions here.
	if value, ok := findAction(costs, convAliases); ok {
		row.ConversionCost = parseNumber(value)
	}
	if value, ok := findAction(actions, linkClickAliases); ok {
		row.LinkClicks = parseCount(value)
	}
	if value, ok := findAction(actions, addToCartAliases); ok {
		row.AddToCart = parseCount(value)
	}
	if value, ok := findAction(actions, checkoutAliases); ok {
		row.Checkouts = parseCount(value)
	}

	return row
}

// DateLabel renders an ISO day as a short human label ("Mon, Jan 8").
// Entity-level rows without a date get an empty label.
func DateLabel(isoDate string) string {
	if isoDate == "" {
		return ""
	}
	parsed, err := time.Parse(dateLayout, isoDate)
	if err != nil {
		return ""
	}
	return parsed.Format("Mon, Jan 2")
}

// findAction scans an action collection in record order and returns the
// value of the first entry whose type is in the alias list, independent of
// the entry's value.
func findAction(entries []map[string]any, aliases []string) (any, bool) {
	for _, entry := range entries {
		actionType, _ := entry["action_type"].(string)
		for _, alias := range aliases {
			if actionType == alias {
				return entry["value"], true
			}
		}
	}
	return nil, false
}

func actionList(raw map[string]any, key string) []map[string]any {
	list, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if entry, ok := item.(map[string]any); ok {
			out = append(out, entry)
		}
	}
	return out
}

// firstListValue reads list-shaped measures like
// cost_per_unique_outbound_click, which arrive as a single-entry list of
// {action_type, value} pairs.
func firstListValue(raw map[string]any, key string) float64 {
	list := actionList(raw, key)
	if len(list) == 0 {
		return 0
	}
	return parseNumber(list[0]["value"])
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringField(raw, key); value != "" {
			return value
		}
	}
	return ""
}

func stringField(raw map[string]any, key string) string {
	value, _ := raw[key].(string)
	return value
}

func numberField(raw map[string]any, key string) float64 {
	return parseNumber(raw[key])
}

func countField(raw map[string]any, key string) float64 {
	return parseCount(raw[key])
}

// parseNumber applies missing-or-unparsable-means-zero semantics: a
// malformed value must not abort normalization of the whole row.
func parseNumber(value any) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case int:
		return float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(typed, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func parseCount(value any) float64 {
	return math.Trunc(parseNumber(value))
}
