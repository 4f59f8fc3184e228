package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"stock-risk-alerts/internal/forecast"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	listIngredientsSQL = `SELECT
        ing_id,
        name,
        lead_time_days
    FROM ingredients
    ORDER BY ing_id;`

	listUpcomingEventsSQL = `SELECT
        event_id,
        event_date,
        event_name,
        impact_multiplier
    FROM events
    WHERE event_date BETWEEN $1::date AND $1::date + $2::int
    ORDER BY event_date, event_id;`

	latestStockSQL = `SELECT stock_level
    FROM inventory_logs
    WHERE location_id = $1 AND ing_id = $2
    ORDER BY log_date DESC, log_id DESC
    LIMIT 1;`

	upsertSnapshotSQL = `INSERT INTO alert_snapshots (
        location_id,
        evaluated_at,
        ing_id,
        ingredient_name,
        current_stock,
        daily_burn_rate,
        days_until_stockout,
        status,
        suggested_markup,
        pricing_rationale,
        recommendation
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    )
    ON CONFLICT (location_id, evaluated_at, ing_id) DO UPDATE
    SET
        ingredient_name     = EXCLUDED.ingredient_name,
        current_stock       = EXCLUDED.current_stock,
        daily_burn_rate     = EXCLUDED.daily_burn_rate,
        days_until_stockout = EXCLUDED.days_until_stockout,
        status              = EXCLUDED.status,
        suggested_markup    = EXCLUDED.suggested_markup,
        pricing_rationale   = EXCLUDED.pricing_rationale,
        recommendation      = EXCLUDED.recommendation;`

	listRecentSnapshotsSQL = `SELECT
        id,
        location_id,
        evaluated_at,
        ing_id,
        ingredient_name,
        current_stock,
        daily_burn_rate::float8,
        days_until_stockout,
        status,
        suggested_markup,
        pricing_rationale,
        recommendation,
        created_at
    FROM alert_snapshots
    WHERE location_id = $1
    ORDER BY evaluated_at DESC, id
    LIMIT $2;`

	deleteSnapshotsBeforeSQL = `DELETE FROM alert_snapshots WHERE evaluated_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// SnapshotStore persists evaluated dashboards for auditing and display.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, locationID int, evaluatedAt time.Time, records []forecast.AlertRecord) error
	ListRecentSnapshots(ctx context.Context, locationID int, limit int) ([]AlertSnapshot, error)
	DeleteSnapshotsBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store serves catalog, events and stock to the forecast engine and keeps alert snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// best effort; the lock dies with the session anyway
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

// ListIngredients returns the catalog ordered by id.
func (s *Store) ListIngredients(ctx context.Context) ([]forecast.Ingredient, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listIngredientsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list ingredients: %w", queryErr)
	}
	defer rows.Close()

	items := make([]forecast.Ingredient, 0)
	for rows.Next() {
		var ing forecast.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.LeadTimeDays); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		items = append(items, ing)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// ListUpcomingEvents lists events dated within [windowStart, windowStart+windowDays].
func (s *Store) ListUpcomingEvents(ctx context.Context, windowStart time.Time, windowDays int) ([]forecast.Event, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listUpcomingEventsSQL, windowStart, windowDays)
	if queryErr != nil {
		return nil, fmt.Errorf("list upcoming events: %w", queryErr)
	}
	defer rows.Close()

	events := make([]forecast.Event, 0)
	for rows.Next() {
		var ev forecast.Event
		if err := rows.Scan(&ev.ID, &ev.Date, &ev.Name, &ev.ImpactMultiplier); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// LatestStock returns the most recent logged level. A missing row or a NULL
// level reports found=false.
func (s *Store) LatestStock(ctx context.Context, locationID int, ingredientID int64) (int, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, false, err
	}

	var level sql.NullInt64
	if scanErr := pool.QueryRow(ctx, latestStockSQL, locationID, ingredientID).Scan(&level); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("latest stock: %w", scanErr)
	}
	if !level.Valid {
		return 0, false, nil
	}
	return int(level.Int64), true, nil
}

// InsertSnapshot upserts every record of one evaluation in a single batch.
func (s *Store) InsertSnapshot(ctx context.Context, locationID int, evaluatedAt time.Time, records []forecast.AlertRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(upsertSnapshotSQL,
			locationID,
			evaluatedAt,
			rec.IngredientID,
			rec.IngredientName,
			rec.CurrentStock,
			decimal.NewFromFloat(rec.DailyBurnRate).String(),
			rec.DaysUntilStockout,
			string(rec.Status),
			rec.SuggestedMarkup.String(),
			rec.PricingRationale,
			rec.Recommendation,
		)
	}

	results := pool.SendBatch(ctx, batch)
	for range records {
		if _, execErr := results.Exec(); execErr != nil {
			_ = results.Close()
			return fmt.Errorf("upsert alert snapshot: %w", execErr)
		}
	}
	if closeErr := results.Close(); closeErr != nil {
		return fmt.Errorf("close snapshot batch: %w", closeErr)
	}
	return nil
}

// ListRecentSnapshots lists the newest snapshot rows for a location.
func (s *Store) ListRecentSnapshots(ctx context.Context, locationID int, limit int) ([]AlertSnapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSnapshotsSQL, locationID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", queryErr)
	}
	defer rows.Close()

	snapshots := make([]AlertSnapshot, 0, limit)
	for rows.Next() {
		snap, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

// DeleteSnapshotsBefore prunes snapshots evaluated before the cutoff.
func (s *Store) DeleteSnapshotsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, deleteSnapshotsBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete snapshots before: %w", execErr)
	}
	return tag.RowsAffected(), nil
}

func scanSnapshot(rows pgx.Rows) (AlertSnapshot, error) {
	var (
		snap      AlertSnapshot
		status    string
		markupStr string
	)

	if err := rows.Scan(
		&snap.ID,
		&snap.LocationID,
		&snap.EvaluatedAt,
		&snap.Record.IngredientID,
		&snap.Record.IngredientName,
		&snap.Record.CurrentStock,
		&snap.Record.DailyBurnRate,
		&snap.Record.DaysUntilStockout,
		&status,
		&markupStr,
		&snap.Record.PricingRationale,
		&snap.Record.Recommendation,
		&snap.CreatedAt,
	); err != nil {
		return AlertSnapshot{}, err
	}

	markup, err := decimal.NewFromString(markupStr)
	if err != nil {
		return AlertSnapshot{}, fmt.Errorf("parse suggested markup: %w", err)
	}
	snap.Record.SuggestedMarkup = markup
	snap.Record.Status = forecast.Status(status)

	return snap, nil
}

var (
	_ forecast.CatalogProvider = (*Store)(nil)
	_ forecast.EventProvider   = (*Store)(nil)
	_ forecast.StockProvider   = (*Store)(nil)
	_ SnapshotStore            = (*Store)(nil)
	_ AdvisoryLocker           = (*Store)(nil)
)
