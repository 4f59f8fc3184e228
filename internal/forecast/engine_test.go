package forecast

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	items []Ingredient
	err   error
}

func (f *fakeCatalog) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	return f.items, f.err
}

type fakeEvents struct {
	items []Event
	err   error
	calls int
	start time.Time
	days  int
}

func (f *fakeEvents) ListUpcomingEvents(ctx context.Context, windowStart time.Time, windowDays int) ([]Event, error) {
	f.calls++
	f.start = windowStart
	f.days = windowDays
	return f.items, f.err
}

type stockKey struct {
	location   int
	ingredient int64
}

type fakeStock struct {
	levels map[stockKey]int
	failOn int64
}

func (f *fakeStock) LatestStock(ctx context.Context, locationID int, ingredientID int64) (int, bool, error) {
	if f.failOn != 0 && ingredientID == f.failOn {
		return 0, false, errors.New("connection reset")
	}
	level, ok := f.levels[stockKey{locationID, ingredientID}]
	return level, ok, nil
}

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, catalog *fakeCatalog, events *fakeEvents, stock *fakeStock) *Engine {
	t.Helper()
	engine, err := NewEngine(catalog, events, stock, zerolog.Nop(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestNewEngineRejectsNilProviders(t *testing.T) {
	if _, err := NewEngine(nil, &fakeEvents{}, &fakeStock{}, zerolog.Nop()); !errors.Is(err, ErrNilProvider) {
		t.Fatalf("缺少 catalog 应返回 ErrNilProvider, 实际 %v", err)
	}
}

func TestGetDashboardScenarios(t *testing.T) {
	cases := []struct {
		name      string
		stock     int
		logged    bool
		lead      int
		events    []Event
		wantRate  float64
		wantDays  int
		wantState Status
		markup    string
		rationale string
	}{
		{
			name: "never logged, no events", logged: false, lead: 2,
			wantRate: 40.0, wantDays: 0, wantState: StatusCritical,
			markup: "0.05", rationale: "Inventory Scarcity",
		},
		{
			name: "moderate surge with cover", stock: 400, logged: true, lead: 3,
			events:   []Event{{Name: "Home Game", Date: testNow.AddDate(0, 0, 2), ImpactMultiplier: 1.5}},
			wantRate: 60.0, wantDays: 6, wantState: StatusOK,
			markup: "0.10", rationale: "Increased Demand: Home Game",
		},
		{
			name: "surge with imminent stockout", stock: 100, logged: true, lead: 5,
			events:   []Event{{Name: "Food Festival", Date: testNow, ImpactMultiplier: 2.0}},
			wantRate: 80.0, wantDays: 1, wantState: StatusCritical,
			markup: "0.20", rationale: "Critical Stockout Risk + Food Festival",
		},
		{
			name: "overlapping events use peak", stock: 500, logged: true, lead: 1,
			events: []Event{
				{Name: "Street Fair", Date: testNow.AddDate(0, 0, 1), ImpactMultiplier: 1.3},
				{Name: "Marathon", Date: testNow.AddDate(0, 0, 1), ImpactMultiplier: 1.8},
			},
			wantRate: 72.0, wantDays: 6, wantState: StatusOK,
			markup: "0.10", rationale: "Increased Demand: Marathon",
		},
		{
			name: "warning band", stock: 160, logged: true, lead: 2,
			wantRate: 40.0, wantDays: 4, wantState: StatusWarning,
			markup: "0", rationale: "Standard Pricing",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := &fakeCatalog{items: []Ingredient{{ID: 7, Name: "Burger Buns", LeadTimeDays: tc.lead}}}
			events := &fakeEvents{items: tc.events}
			stock := &fakeStock{levels: map[stockKey]int{}}
			if tc.logged {
				stock.levels[stockKey{1, 7}] = tc.stock
			}

			records, err := newTestEngine(t, catalog, events, stock).GetDashboard(context.Background(), 1)
			if err != nil {
				t.Fatalf("GetDashboard: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("应返回 1 条记录, 实际 %d", len(records))
			}
			rec := records[0]
			if rec.CurrentStock != tc.stock {
				t.Fatalf("stock = %d, want %d", rec.CurrentStock, tc.stock)
			}
			if rec.DailyBurnRate != tc.wantRate {
				t.Fatalf("burn rate = %v, want %v", rec.DailyBurnRate, tc.wantRate)
			}
			if rec.DaysUntilStockout != tc.wantDays {
				t.Fatalf("days = %d, want %d", rec.DaysUntilStockout, tc.wantDays)
			}
			if rec.Status != tc.wantState {
				t.Fatalf("status = %s, want %s", rec.Status, tc.wantState)
			}
			if !rec.SuggestedMarkup.Equal(decimal.RequireFromString(tc.markup)) {
				t.Fatalf("markup = %s, want %s", rec.SuggestedMarkup, tc.markup)
			}
			if rec.PricingRationale != tc.rationale {
				t.Fatalf("rationale = %q, want %q", rec.PricingRationale, tc.rationale)
			}
			if rec.Recommendation != Recommendation(tc.wantState) {
				t.Fatalf("recommendation = %q", rec.Recommendation)
			}
		})
	}
}

func TestGetDashboardOneRecordPerIngredientInOrder(t *testing.T) {
	catalog := &fakeCatalog{items: []Ingredient{
		{ID: 3, Name: "Tomatoes", LeadTimeDays: 1},
		{ID: 1, Name: "Cheese", LeadTimeDays: 4},
		{ID: 2, Name: "Lettuce", LeadTimeDays: 2},
	}}
	events := &fakeEvents{}
	stock := &fakeStock{levels: map[stockKey]int{{9, 1}: 1000}}

	records, err := newTestEngine(t, catalog, events, stock).GetDashboard(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if len(records) != len(catalog.items) {
		t.Fatalf("记录数 %d 应等于目录数 %d", len(records), len(catalog.items))
	}
	for i, ing := range catalog.items {
		if records[i].IngredientName != ing.Name {
			t.Fatalf("record %d = %q, want %q", i, records[i].IngredientName, ing.Name)
		}
	}
	if records[0].CurrentStock != 0 || records[2].CurrentStock != 0 {
		t.Fatalf("未记录库存的原料应为 0: %+v", records)
	}
	if records[1].CurrentStock != 1000 {
		t.Fatalf("Cheese stock = %d", records[1].CurrentStock)
	}
}

func TestGetDashboardKeepsDuplicateNamesApart(t *testing.T) {
	catalog := &fakeCatalog{items: []Ingredient{
		{ID: 1, Name: "Buns", LeadTimeDays: 2},
		{ID: 2, Name: "Buns", LeadTimeDays: 2},
	}}
	stock := &fakeStock{levels: map[stockKey]int{{4, 2}: 1000}}

	records, err := newTestEngine(t, catalog, &fakeEvents{}, stock).GetDashboard(context.Background(), 4)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("同名原料应各有一条记录, 实际 %d", len(records))
	}
	if records[0].IngredientID != 1 || records[1].IngredientID != 2 {
		t.Fatalf("记录应携带原料 id: %+v", records)
	}
	if records[0].Status != StatusCritical || records[1].Status != StatusOK {
		t.Fatalf("unexpected statuses: %s, %s", records[0].Status, records[1].Status)
	}
}

func TestGetDashboardResolvesEventsOnce(t *testing.T) {
	catalog := &fakeCatalog{items: []Ingredient{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}}
	events := &fakeEvents{}
	stock := &fakeStock{levels: map[stockKey]int{}}

	if _, err := newTestEngine(t, catalog, events, stock).GetDashboard(context.Background(), 1); err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if events.calls != 1 {
		t.Fatalf("事件只应查询一次, 实际 %d 次", events.calls)
	}
	if !events.start.Equal(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) || events.days != WindowDays {
		t.Fatalf("window = %s/%d", events.start, events.days)
	}
}

func TestGetDashboardIdempotent(t *testing.T) {
	catalog := &fakeCatalog{items: []Ingredient{{ID: 1, Name: "Fries", LeadTimeDays: 2}, {ID: 2, Name: "Patties", LeadTimeDays: 3}}}
	events := &fakeEvents{items: []Event{{Name: "Concert", Date: testNow.AddDate(0, 0, 4), ImpactMultiplier: 1.25}}}
	stock := &fakeStock{levels: map[stockKey]int{{1, 1}: 90, {1, 2}: 333}}
	engine := newTestEngine(t, catalog, events, stock)

	first, err := engine.GetDashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := engine.GetDashboard(context.Background(), 1)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("两次调用结果应一致:\n%+v\n%+v", first, second)
	}
}

func TestGetDashboardProviderFailuresAbort(t *testing.T) {
	boom := errors.New("db down")
	items := []Ingredient{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}

	cases := map[string]struct {
		catalog *fakeCatalog
		events  *fakeEvents
		stock   *fakeStock
	}{
		"catalog": {&fakeCatalog{err: boom}, &fakeEvents{}, &fakeStock{}},
		"events":  {&fakeCatalog{items: items}, &fakeEvents{err: boom}, &fakeStock{}},
		"stock":   {&fakeCatalog{items: items}, &fakeEvents{}, &fakeStock{failOn: 2}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			records, err := newTestEngine(t, tc.catalog, tc.events, tc.stock).GetDashboard(context.Background(), 1)
			if err == nil {
				t.Fatal("provider 失败应返回错误")
			}
			if records != nil {
				t.Fatalf("失败时不应返回部分结果: %+v", records)
			}
		})
	}
}

func TestCurrentStockTreatsAbsenceAsZero(t *testing.T) {
	stock := &fakeStock{levels: map[stockKey]int{{1, 5}: 12}}
	if got, err := CurrentStock(context.Background(), stock, 1, 5); err != nil || got != 12 {
		t.Fatalf("got %d, %v", got, err)
	}
	if got, err := CurrentStock(context.Background(), stock, 2, 5); err != nil || got != 0 {
		t.Fatalf("absent pair should be 0, got %d, %v", got, err)
	}
}
