package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stock-risk-alerts/internal/forecast"
	"stock-risk-alerts/internal/service"
)

// simulatedLocation is the location id reported for simulated runs.
const simulatedLocation = 0

// SimulateOptions describe a single hypothetical ingredient and event.
type SimulateOptions struct {
	IngredientName  string
	Stock           int
	LeadTimeDays    int
	EventMultiplier float64
	EventName       string
	Notify          bool
}

// Simulate 用内存中的数据跑一次规则引擎, 打印结果并可选发送告警。
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) ([]forecast.AlertRecord, error) {
	if opts.Stock < 0 {
		return nil, errors.New("stock 不能为负数")
	}
	if opts.LeadTimeDays < 0 {
		return nil, errors.New("lead-time 不能为负数")
	}
	if opts.IngredientName == "" {
		opts.IngredientName = "Simulated Ingredient"
	}

	now := time.Now().UTC()
	fixture := &staticFixture{
		ingredient: forecast.Ingredient{ID: 1, Name: opts.IngredientName, LeadTimeDays: opts.LeadTimeDays},
		stock:      opts.Stock,
	}
	if opts.EventMultiplier > 0 {
		name := opts.EventName
		if name == "" {
			name = "Simulated Event"
		}
		fixture.events = []forecast.Event{{ID: 1, Date: now, Name: name, ImpactMultiplier: opts.EventMultiplier}}
	}

	engine, err := forecast.NewEngine(fixture, fixture, fixture, a.Logger, forecast.WithClock(func() time.Time { return now }))
	if err != nil {
		return nil, err
	}

	if !opts.Notify {
		records, err := engine.GetDashboard(ctx, simulatedLocation)
		if err != nil {
			return nil, err
		}
		return records, writeRecordsTable(a.Out, records)
	}

	if !a.Config.Alerting.Enabled {
		return nil, errors.New("alerting 未启用")
	}
	notifier := a.newNotifier()
	if notifier == nil {
		return nil, errors.New("未配置任何告警通道")
	}

	svc := service.New(a.Config, nil, engine, nil, notifier, a.Logger)
	records, err := svc.Evaluate(ctx, simulatedLocation, now)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	return records, writeRecordsTable(a.Out, records)
}

// staticFixture serves one ingredient, its stock, and optional events from memory.
type staticFixture struct {
	ingredient forecast.Ingredient
	stock      int
	events     []forecast.Event
}

func (s *staticFixture) ListIngredients(ctx context.Context) ([]forecast.Ingredient, error) {
	return []forecast.Ingredient{s.ingredient}, nil
}

func (s *staticFixture) ListUpcomingEvents(ctx context.Context, windowStart time.Time, windowDays int) ([]forecast.Event, error) {
	return s.events, nil
}

func (s *staticFixture) LatestStock(ctx context.Context, locationID int, ingredientID int64) (int, bool, error) {
	return s.stock, true, nil
}

var (
	_ forecast.CatalogProvider = (*staticFixture)(nil)
	_ forecast.EventProvider   = (*staticFixture)(nil)
	_ forecast.StockProvider   = (*staticFixture)(nil)
)
