package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// BaseBurnRate is the baseline daily consumption of every ingredient.
	BaseBurnRate = 40.0
	// WindowDays is the event lookahead window.
	WindowDays = 7
	// NoStockout stands in for "will not stock out" when the burn rate is not positive.
	NoStockout = 999
	// WarningBufferDays widens the CRITICAL band into WARNING.
	WarningBufferDays = 2
)

// Status classifies stockout risk for an ingredient.
type Status string

const (
	StatusOK       Status = "OK"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// Severity orders statuses; higher is worse.
func (s Status) Severity() int {
	switch s {
	case StatusCritical:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// ParseStatus 将字符串解析为状态，未知值返回 false。
func ParseStatus(v string) (Status, bool) {
	switch Status(v) {
	case StatusOK, StatusWarning, StatusCritical:
		return Status(v), true
	}
	return "", false
}

// Ingredient is a catalog entry.
type Ingredient struct {
	ID           int64
	Name         string
	LeadTimeDays int
}

// Event is a calendar event that scales demand.
type Event struct {
	ID               int64
	Date             time.Time
	Name             string
	ImpactMultiplier float64
}

// AlertRecord is the per-ingredient output of a dashboard evaluation.
type AlertRecord struct {
	IngredientID      int64           `json:"ingredient_id"`
	IngredientName    string          `json:"ingredient_name"`
	CurrentStock      int             `json:"current_stock"`
	DailyBurnRate     float64         `json:"daily_burn_rate"`
	DaysUntilStockout int             `json:"days_until_stockout"`
	Status            Status          `json:"status"`
	SuggestedMarkup   decimal.Decimal `json:"suggested_price_markup"`
	PricingRationale  string          `json:"pricing_rationale"`
	Recommendation    string          `json:"recommendation"`
}
