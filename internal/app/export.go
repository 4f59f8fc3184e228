package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"stock-risk-alerts/internal/forecast"
)

// chartDaysCap bounds bars for ingredients that never run out.
const chartDaysCap = 30

// Export renders a fresh dashboard as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxRows = a.Config.ResolveMaxRows(opts.MaxRows)

	store, closeStore, err := a.requireStore(ctx, "export")
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := a.newEngine(store)
	if err != nil {
		return err
	}

	records, err := engine.GetDashboard(ctx, opts.LocationID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Int("location_id", opts.LocationID).Msg("catalog is empty; nothing to export")
		return nil
	}

	limited := limitRecords(records, opts.MaxRows)
	a.Logger.Info().Int("total", len(records)).Int("exported", len(limited)).Msg("exporting dashboard")

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, limited); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRecordsPNG(opts.PNGPath, opts.LocationID, limited); err != nil {
			return err
		}
	}

	return nil
}

func limitRecords(records []forecast.AlertRecord, max int) []forecast.AlertRecord {
	if max <= 0 || len(records) <= max {
		return records
	}
	return records[:max]
}

func writeRecordsCSV(path string, records []forecast.AlertRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"ingredient_name", "current_stock", "daily_burn_rate", "days_until_stockout", "status", "suggested_price_markup", "pricing_rationale", "recommendation"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.IngredientName,
			strconv.Itoa(rec.CurrentStock),
			strconv.FormatFloat(rec.DailyBurnRate, 'f', 1, 64),
			strconv.Itoa(rec.DaysUntilStockout),
			string(rec.Status),
			rec.SuggestedMarkup.StringFixed(2),
			rec.PricingRationale,
			rec.Recommendation,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeRecordsPNG(path string, locationID int, records []forecast.AlertRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(records))
	maxValue := 1.0
	for _, rec := range records {
		days := rec.DaysUntilStockout
		if days > chartDaysCap {
			days = chartDaysCap
		}
		value := float64(days)
		if value > maxValue {
			maxValue = value
		}
		bars = append(bars, chart.Value{
			Label: rec.IngredientName,
			Value: value,
			Style: chart.Style{
				FillColor:   statusColor(rec.Status),
				StrokeColor: statusColor(rec.Status),
				StrokeWidth: 1,
			},
		})
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Location %d: days until stockout (capped at %d)", locationID, chartDaysCap),
		Width:    1280,
		Height:   720,
		BarWidth: 48,
		Background: chart.Style{
			Padding: chart.Box{Top: 48},
		},
		YAxis: chart.YAxis{
			Name:  "Days",
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func statusColor(status forecast.Status) drawing.Color {
	switch status {
	case forecast.StatusCritical:
		return drawing.ColorFromHex("d9534f")
	case forecast.StatusWarning:
		return drawing.ColorFromHex("f0ad4e")
	default:
		return drawing.ColorFromHex("5cb85c")
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
