package forecast

import "github.com/shopspring/decimal"

// Projection is the demand-adjusted consumption forecast for one ingredient.
type Projection struct {
	SurgeBurnRate     float64
	DaysUntilStockout int
}

// Project scales the base burn rate by the impact multiplier and derives whole
// days of cover. A non-positive burn rate yields NoStockout.
func Project(currentStock int, baseBurnRate, multiplier float64) Projection {
	surge := baseBurnRate * multiplier
	if !(surge > 0) {
		return Projection{SurgeBurnRate: surge, DaysUntilStockout: NoStockout}
	}
	return Projection{
		SurgeBurnRate:     surge,
		DaysUntilStockout: int(float64(currentStock) / surge),
	}
}

// Classify maps days of cover against lead time.
func Classify(daysUntilStockout, leadTimeDays int) Status {
	switch {
	case daysUntilStockout <= leadTimeDays:
		return StatusCritical
	case daysUntilStockout <= leadTimeDays+WarningBufferDays:
		return StatusWarning
	default:
		return StatusOK
	}
}

// Recommendation is the operator-facing action for a status.
func Recommendation(status Status) string {
	if status == StatusCritical {
		return "ORDER IMMEDIATELY"
	}
	return "Monitor Stock"
}

// roundBurnRate rounds to one decimal place, half away from zero. The value
// goes through decimal so 0.05-style inputs are not lost to binary error.
func roundBurnRate(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
