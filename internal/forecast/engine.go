package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stock-risk-alerts/internal/logging"
)

// ErrNilProvider is returned by NewEngine when a provider is missing.
var ErrNilProvider = errors.New("forecast: provider is nil")

// Engine assembles per-ingredient alert records for a location.
type Engine struct {
	catalog CatalogProvider
	events  EventProvider
	stock   StockProvider
	logger  zerolog.Logger
	now     func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to anchor the lookahead window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires the three providers into an Engine.
func NewEngine(catalog CatalogProvider, events EventProvider, stock StockProvider, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if catalog == nil || events == nil || stock == nil {
		return nil, ErrNilProvider
	}
	e := &Engine{
		catalog: catalog,
		events:  events,
		stock:   stock,
		logger:  logging.Component(logger, "forecast"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// snapshot is the read-only input for one GetDashboard call.
type snapshot struct {
	windowStart time.Time
	ingredients []Ingredient
	impact      Impact
}

func (e *Engine) takeSnapshot(ctx context.Context) (snapshot, error) {
	windowStart := dateOf(e.now())

	ingredients, err := e.catalog.ListIngredients(ctx)
	if err != nil {
		return snapshot{}, fmt.Errorf("list ingredients: %w", err)
	}

	events, err := e.events.ListUpcomingEvents(ctx, windowStart, WindowDays)
	if err != nil {
		return snapshot{}, fmt.Errorf("list upcoming events: %w", err)
	}

	return snapshot{
		windowStart: windowStart,
		ingredients: ingredients,
		impact:      ResolveImpact(events, windowStart, WindowDays),
	}, nil
}

// GetDashboard evaluates every catalog ingredient at locationID and returns
// one record per ingredient in catalog order. Any provider failure aborts the
// whole evaluation.
func (e *Engine) GetDashboard(ctx context.Context, locationID int) ([]AlertRecord, error) {
	snap, err := e.takeSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("location_id", locationID).
		Int("ingredients", len(snap.ingredients)).
		Float64("multiplier", snap.impact.Multiplier).
		Str("event", snap.impact.EventName).
		Time("window_start", snap.windowStart).
		Msg("evaluating dashboard")

	records := make([]AlertRecord, 0, len(snap.ingredients))
	for _, ing := range snap.ingredients {
		stock, err := CurrentStock(ctx, e.stock, locationID, ing.ID)
		if err != nil {
			return nil, fmt.Errorf("latest stock for ingredient %d: %w", ing.ID, err)
		}
		records = append(records, buildRecord(ing, stock, snap.impact))
	}
	return records, nil
}

func buildRecord(ing Ingredient, stock int, impact Impact) AlertRecord {
	proj := Project(stock, BaseBurnRate, impact.Multiplier)
	status := Classify(proj.DaysUntilStockout, ing.LeadTimeDays)
	pricing := RecommendPricing(impact.Multiplier, proj.DaysUntilStockout, ing.LeadTimeDays, impact.EventName)

	return AlertRecord{
		IngredientID:      ing.ID,
		IngredientName:    ing.Name,
		CurrentStock:      stock,
		DailyBurnRate:     roundBurnRate(proj.SurgeBurnRate),
		DaysUntilStockout: proj.DaysUntilStockout,
		Status:            status,
		SuggestedMarkup:   pricing.Markup,
		PricingRationale:  pricing.Rationale,
		Recommendation:    Recommendation(status),
	}
}
