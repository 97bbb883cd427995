package insights

import "fmt"

// Vertical is the business model a dashboard reports under. It decides
// which action types count as "conversion" and which metric set is active.
type Vertical string

const (
	VerticalApp  Vertical = "app"
	VerticalLead Vertical = "lead"
	VerticalEcom Vertical = "ecom"
)

func ParseVertical(value string) (Vertical, error) {
	switch Vertical(value) {
	case VerticalApp, VerticalLead, VerticalEcom:
		return Vertical(value), nil
	default:
		return "", fmt.Errorf("unknown vertical %q: expected app|lead|ecom", value)
	}
}

// Alias lists are ordered on purpose: resolution scans the raw action
// collection and takes the first entry whose type is in the list, so list
// order is a documented tie-break, not an accident of iteration.
var (
	installAliases   = []string{"omni_app_install", "mobile_app_install", "app_install"}
	purchaseAliases  = []string{"purchase", "omni_purchase"}
	linkClickAliases = []string{"link_click", "outbound_click"}
	addToCartAliases = []string{"add_to_cart", "omni_add_to_cart"}
	checkoutAliases  = []string{"initiate_checkout", "omni_initiated_checkout"}
)

// ConversionAliases returns the action types that count as a conversion for
// the vertical. Lead dashboards track whichever event the dashboard was
// configured with, defaulting to the standard lead event.
func (v Vertical) ConversionAliases(conversionEvent string) []string {
	switch v {
	case VerticalApp:
		return installAliases
	case VerticalLead:
		if conversionEvent == "" {
			conversionEvent = "lead"
		}
		return []string{conversionEvent}
	case VerticalEcom:
		return purchaseAliases
	default:
		return nil
	}
}
