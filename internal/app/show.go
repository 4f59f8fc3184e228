package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"stock-risk-alerts/internal/forecast"
)

// Dashboard evaluates a location now and prints the result.
func (a *App) Dashboard(ctx context.Context, opts DashboardOptions) error {
	store, closeStore, err := a.requireStore(ctx, "build dashboard")
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

	if opts.JSON {
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	return writeRecordsTable(a.Out, records)
}

// Show prints recently persisted snapshot rows for a location.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.requireStore(ctx, "show snapshots")
	if err != nil {
		return err
	}
	defer closeStore()

	snapshots, err := store.ListRecentSnapshots(ctx, opts.LocationID, opts.Limit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(a.Out, "no snapshots found")
		return nil
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Evaluated (UTC)\tIngredient\tStock\tBurn/day\tDays\tStatus\tMarkup\tRationale")
	for _, snap := range snapshots {
		rec := snap.Record
		fmt.Fprintf(writer, "%s\t%s\t%d\t%.1f\t%s\t%s\t%s\t%s\n",
			snap.EvaluatedAt.UTC().Format(time.RFC3339),
			sanitizeInline(rec.IngredientName),
			rec.CurrentStock,
			rec.DailyBurnRate,
			formatDays(rec.DaysUntilStockout),
			rec.Status,
			formatMarkup(rec),
			sanitizeInline(rec.PricingRationale),
		)
	}
	return writer.Flush()
}

func writeRecordsTable(w io.Writer, records []forecast.AlertRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "catalog is empty")
		return nil
	}

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Ingredient\tStock\tBurn/day\tDays\tStatus\tMarkup\tRationale\tRecommendation")
	for _, rec := range records {
		fmt.Fprintf(writer, "%s\t%d\t%.1f\t%s\t%s\t%s\t%s\t%s\n",
			sanitizeInline(rec.IngredientName),
			rec.CurrentStock,
			rec.DailyBurnRate,
			formatDays(rec.DaysUntilStockout),
			rec.Status,
			formatMarkup(rec),
			sanitizeInline(rec.PricingRationale),
			rec.Recommendation,
		)
	}
	return writer.Flush()
}

func formatDays(days int) string {
	if days >= forecast.NoStockout {
		return "-"
	}
	return fmt.Sprintf("%d", days)
}

func formatMarkup(rec forecast.AlertRecord) string {
	return "+" + rec.SuggestedMarkup.Shift(2).StringFixed(0) + "%"
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}
