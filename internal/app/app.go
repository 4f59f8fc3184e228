package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"stock-risk-alerts/internal/alerting"
	"stock-risk-alerts/internal/config"
	"stock-risk-alerts/internal/forecast"
	"stock-risk-alerts/internal/logging"
	"stock-risk-alerts/internal/scheduler"
	"stock-risk-alerts/internal/service"
	"stock-risk-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logging.Component(logger, "app"), Out: os.Stdout}
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// requireStore opens the store and fails when no database is configured.
func (a *App) requireStore(ctx context.Context, purpose string) (*storage.Store, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, errors.New("database.dsn not configured; cannot " + purpose)
	}
	return store, closeStore, nil
}

func (a *App) newEngine(store *storage.Store) (*forecast.Engine, error) {
	return forecast.NewEngine(store, store, store, a.Logger)
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.requireStore(ctx, "monitor")
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := a.newEngine(store)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		RunOnStart:   a.Config.Scheduler.RunOnStart,
	}, a.Logger)

	notifier := a.newNotifier()
	if a.Config.Alerting.Enabled && notifier == nil {
		a.Logger.Warn().Msg("alerting enabled but no channel configured; notifications disabled")
	}

	svc := service.New(a.Config, sched, engine, store, notifier, a.Logger)

	a.Logger.Info().Ints("locations", a.Config.Dashboard.LocationIDs).Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// DashboardOptions configure the dashboard command.
type DashboardOptions struct {
	LocationID int
	JSON       bool
}

// ExportOptions hold parameters for exporting a dashboard.
type ExportOptions struct {
	LocationID int
	PNGPath    string
	CSVPath    string
	MaxRows    int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	LocationID int
	Limit      int
}

// PruneOptions configure snapshot retention.
type PruneOptions struct {
	OlderThan time.Duration
}
