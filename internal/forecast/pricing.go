package forecast

import "github.com/shopspring/decimal"

// surgeMultiplierThreshold is the impact above which an event counts as a demand shock.
const surgeMultiplierThreshold = 1.2

var (
	markupCriticalSurge = decimal.RequireFromString("0.20")
	markupSurge         = decimal.RequireFromString("0.10")
	markupScarcity      = decimal.RequireFromString("0.05")
)

// Pricing is a suggested markup and the reason for it.
type Pricing struct {
	Markup    decimal.Decimal
	Rationale string
}

// RecommendPricing applies the markup rules in priority order. A demand shock
// outranks intrinsic scarcity when both apply.
func RecommendPricing(multiplier float64, daysUntilStockout, leadTimeDays int, eventName string) Pricing {
	switch {
	case multiplier > surgeMultiplierThreshold && daysUntilStockout <= leadTimeDays:
		return Pricing{Markup: markupCriticalSurge, Rationale: "Critical Stockout Risk + " + eventName}
	case multiplier > surgeMultiplierThreshold:
		return Pricing{Markup: markupSurge, Rationale: "Increased Demand: " + eventName}
	case daysUntilStockout <= 1:
		return Pricing{Markup: markupScarcity, Rationale: "Inventory Scarcity"}
	default:
		return Pricing{Markup: decimal.Zero, Rationale: "Standard Pricing"}
	}
}
