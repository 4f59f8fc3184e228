package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stock-risk-alerts/internal/config"
	"stock-risk-alerts/internal/forecast"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		Dashboard: config.DashboardConfig{Workers: 1},
		Alerting:  config.AlertingConfig{MinStatus: "CRITICAL"},
		Export:    config.ExportConfig{MaxRows: 100},
	}
	out := &bytes.Buffer{}
	a := NewApp(cfg, zerolog.Nop())
	a.Out = out
	return a, out
}

func sampleRecords() []forecast.AlertRecord {
	return []forecast.AlertRecord{
		{
			IngredientName:    "Burger Buns",
			CurrentStock:      150,
			DailyBurnRate:     100,
			DaysUntilStockout: 1,
			Status:            forecast.StatusCritical,
			SuggestedMarkup:   decimal.RequireFromString("0.20"),
			PricingRationale:  "Critical Stockout Risk + Super Bowl",
			Recommendation:    "ORDER IMMEDIATELY",
		},
		{
			IngredientName:    "Cheddar",
			CurrentStock:      0,
			DailyBurnRate:     0,
			DaysUntilStockout: forecast.NoStockout,
			Status:            forecast.StatusOK,
			SuggestedMarkup:   decimal.Zero,
			PricingRationale:  "Standard Pricing",
			Recommendation:    "Monitor Stock",
		},
	}
}

func TestSimulateSurgeScenario(t *testing.T) {
	a, out := newTestApp(t)

	records, err := a.Simulate(context.Background(), SimulateOptions{
		IngredientName:  "Burger Buns",
		Stock:           150,
		LeadTimeDays:    2,
		EventMultiplier: 2.5,
		EventName:       "Super Bowl",
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("应返回 1 条记录, 实际 %d", len(records))
	}
	rec := records[0]
	if rec.DaysUntilStockout != 1 || rec.Status != forecast.StatusCritical {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.SuggestedMarkup.Equal(decimal.RequireFromString("0.20")) {
		t.Fatalf("markup = %s", rec.SuggestedMarkup)
	}
	if !strings.Contains(out.String(), "Burger Buns") || !strings.Contains(out.String(), "+20%") {
		t.Fatalf("表格输出缺少内容:\n%s", out.String())
	}
}

func TestSimulateWithoutEventIsBaseline(t *testing.T) {
	a, _ := newTestApp(t)

	records, err := a.Simulate(context.Background(), SimulateOptions{Stock: 500, LeadTimeDays: 3})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	rec := records[0]
	if rec.DailyBurnRate != forecast.BaseBurnRate || rec.DaysUntilStockout != 12 || rec.Status != forecast.StatusOK {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.IngredientName != "Simulated Ingredient" {
		t.Fatalf("默认名称错误: %q", rec.IngredientName)
	}
}

func TestSimulateRejectsNegativeInput(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.Simulate(context.Background(), SimulateOptions{Stock: -1}); err == nil {
		t.Fatal("负库存应报错")
	}
	if _, err := a.Simulate(context.Background(), SimulateOptions{LeadTimeDays: -1}); err == nil {
		t.Fatal("负提前期应报错")
	}
}

func TestSimulateNotifyRequiresAlerting(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.Simulate(context.Background(), SimulateOptions{Stock: 10, Notify: true}); err == nil {
		t.Fatal("未启用告警时 --notify 应报错")
	}
}

func TestCommandsRequireDatabase(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	if err := a.Dashboard(ctx, DashboardOptions{LocationID: 1}); err == nil {
		t.Fatal("dashboard 需要数据库")
	}
	if err := a.Show(ctx, ShowOptions{LocationID: 1, Limit: 5}); err == nil {
		t.Fatal("show 需要数据库")
	}
	if err := a.Export(ctx, ExportOptions{LocationID: 1, CSVPath: "x.csv"}); err == nil {
		t.Fatal("export 需要数据库")
	}
	if err := a.Migrate(ctx); err == nil {
		t.Fatal("migrate 需要数据库")
	}
}

func TestExportRequiresOutput(t *testing.T) {
	a, _ := newTestApp(t)
	err := a.Export(context.Background(), ExportOptions{LocationID: 1})
	if err == nil || !strings.Contains(err.Error(), "--csv or --png") {
		t.Fatalf("缺少输出路径应报错, 实际 %v", err)
	}
}

func TestPruneRequiresPositiveWindow(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.Prune(context.Background(), PruneOptions{}); err == nil {
		t.Fatal("older-than 为 0 应报错")
	}
}

func TestWriteRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dashboard.csv")
	if err := writeRecordsCSV(path, sampleRecords()); err != nil {
		t.Fatalf("writeRecordsCSV: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("应有表头 + 2 行, 实际 %d", len(rows))
	}
	if rows[0][0] != "ingredient_name" || rows[0][5] != "suggested_price_markup" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	want := []string{"Burger Buns", "150", "100.0", "1", "CRITICAL", "0.20", "Critical Stockout Risk + Super Bowl", "ORDER IMMEDIATELY"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Fatalf("column %d = %q, want %q", i, rows[1][i], v)
		}
	}
	if rows[2][3] != "999" {
		t.Fatalf("无消耗时应导出 999, 实际 %q", rows[2][3])
	}
}

func TestWriteRecordsPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.png")
	if err := writeRecordsPNG(path, 3, sampleRecords()); err != nil {
		t.Fatalf("writeRecordsPNG: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("PNG 文件为空")
	}
}

func TestLimitRecords(t *testing.T) {
	records := sampleRecords()
	if got := limitRecords(records, 1); len(got) != 1 || got[0].IngredientName != "Burger Buns" {
		t.Fatalf("limitRecords = %+v", got)
	}
	if got := limitRecords(records, 0); len(got) != 2 {
		t.Fatalf("max<=0 应返回全部, 实际 %d", len(got))
	}
}

func TestWriteRecordsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRecordsTable(&buf, sampleRecords()); err != nil {
		t.Fatalf("writeRecordsTable: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Ingredient", "Burger Buns", "+20%", "Cheddar", "+0%", "Monitor Stock"} {
		if !strings.Contains(out, want) {
			t.Fatalf("表格缺少 %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := writeRecordsTable(&buf, nil); err != nil {
		t.Fatalf("writeRecordsTable: %v", err)
	}
	if !strings.Contains(buf.String(), "catalog is empty") {
		t.Fatalf("空目录输出: %q", buf.String())
	}
}

func TestFormatDays(t *testing.T) {
	if formatDays(forecast.NoStockout) != "-" || formatDays(4) != "4" {
		t.Fatal("formatDays 输出不正确")
	}
}
