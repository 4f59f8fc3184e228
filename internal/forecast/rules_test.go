package forecast

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestProject(t *testing.T) {
	cases := []struct {
		name       string
		stock      int
		base       float64
		multiplier float64
		wantSurge  float64
		wantDays   int
	}{
		{"zero stock", 0, BaseBurnRate, 1.0, 40, 0},
		{"truncates", 400, BaseBurnRate, 1.5, 60, 6},
		{"surge", 100, BaseBurnRate, 2.0, 80, 1},
		{"exact", 120, BaseBurnRate, 1.0, 40, 3},
		{"zero burn", 50, 0, 1.0, 0, NoStockout},
		{"negative burn", 50, -10, 1.0, -10, NoStockout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Project(tc.stock, tc.base, tc.multiplier)
			if got.SurgeBurnRate != tc.wantSurge {
				t.Fatalf("surge = %v, want %v", got.SurgeBurnRate, tc.wantSurge)
			}
			if got.DaysUntilStockout != tc.wantDays {
				t.Fatalf("days = %d, want %d", got.DaysUntilStockout, tc.wantDays)
			}
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	for lead := 0; lead <= 10; lead++ {
		if got := Classify(lead, lead); got != StatusCritical {
			t.Fatalf("days == lead(%d) 应为 CRITICAL, 实际 %s", lead, got)
		}
		if got := Classify(lead+1, lead); got != StatusWarning {
			t.Fatalf("days == lead+1(%d) 应为 WARNING, 实际 %s", lead, got)
		}
		if got := Classify(lead+2, lead); got != StatusWarning {
			t.Fatalf("days == lead+2(%d) 应为 WARNING, 实际 %s", lead, got)
		}
		if got := Classify(lead+3, lead); got != StatusOK {
			t.Fatalf("days == lead+3(%d) 应为 OK, 实际 %s", lead, got)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	for lead := 0; lead <= 14; lead++ {
		prev := Classify(0, lead)
		for days := 1; days <= 40; days++ {
			cur := Classify(days, lead)
			if cur.Severity() > prev.Severity() {
				t.Fatalf("lead=%d days=%d: severity rose from %s to %s", lead, days, prev, cur)
			}
			prev = cur
		}
		if got := Classify(NoStockout, lead); got != StatusOK {
			t.Fatalf("NoStockout 应为 OK, 实际 %s", got)
		}
	}
}

func TestRecommendation(t *testing.T) {
	if got := Recommendation(StatusCritical); got != "ORDER IMMEDIATELY" {
		t.Fatalf("unexpected critical recommendation %q", got)
	}
	for _, s := range []Status{StatusWarning, StatusOK} {
		if got := Recommendation(s); got != "Monitor Stock" {
			t.Fatalf("unexpected %s recommendation %q", s, got)
		}
	}
}

func TestRoundBurnRate(t *testing.T) {
	cases := map[float64]float64{
		40:       40,
		52.0:     52,
		44.44:    44.4,
		44.45:    44.5,
		0.05:     0.1,
		59.99999: 60,
	}
	for in, want := range cases {
		if got := roundBurnRate(in); got != want {
			t.Fatalf("roundBurnRate(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestRecommendPricing(t *testing.T) {
	cases := []struct {
		name       string
		multiplier float64
		days       int
		lead       int
		event      string
		markup     string
		rationale  string
	}{
		{"surge and stockout", 2.0, 1, 5, "Festival", "0.20", "Critical Stockout Risk + Festival"},
		{"surge at lead boundary", 1.5, 3, 3, "Game", "0.20", "Critical Stockout Risk + Game"},
		{"surge with cover", 1.5, 6, 3, "Game", "0.10", "Increased Demand: Game"},
		{"surge beats scarcity", 1.3, 1, 0, "Fair", "0.10", "Increased Demand: Fair"},
		{"threshold is exclusive", 1.2, 0, 3, "Minor", "0.05", "Inventory Scarcity"},
		{"scarcity", 1.0, 1, 0, "", "0.05", "Inventory Scarcity"},
		{"standard", 1.0, 2, 0, "", "0", "Standard Pricing"},
		{"mild event standard", 1.1, 30, 2, "Parade", "0", "Standard Pricing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecommendPricing(tc.multiplier, tc.days, tc.lead, tc.event)
			if !got.Markup.Equal(decimal.RequireFromString(tc.markup)) {
				t.Fatalf("markup = %s, want %s", got.Markup, tc.markup)
			}
			if got.Rationale != tc.rationale {
				t.Fatalf("rationale = %q, want %q", got.Rationale, tc.rationale)
			}
		})
	}
}
