package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stock-risk-alerts/internal/alerting"
	"stock-risk-alerts/internal/config"
	"stock-risk-alerts/internal/forecast"
	"stock-risk-alerts/internal/logging"
	"stock-risk-alerts/internal/scheduler"
	"stock-risk-alerts/internal/storage"
)

// Dashboarder produces the alert records for a location.
type Dashboarder interface {
	GetDashboard(ctx context.Context, locationID int) ([]forecast.AlertRecord, error)
}

// Service orchestrates scheduled evaluation, persistence, and alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	engine    Dashboarder
	store     storage.SnapshotStore
	notifier  alerting.Notifier
	logger    zerolog.Logger

	locations []int
	workers   int
	minStatus forecast.Status
	channels  []string
	alertsOn  bool
	cooldown  time.Duration
	locker    storage.AdvisoryLocker
	lockKey   int64

	mu           sync.Mutex
	lastNotified map[int]time.Time
	now          func() time.Time
}

// New constructs the monitoring service. store, notifier and sched may be nil.
func New(cfg *config.Config, sched *scheduler.Scheduler, engine Dashboarder, store storage.SnapshotStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	workers := cfg.Dashboard.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Service{
		scheduler:    sched,
		engine:       engine,
		store:        store,
		notifier:     notifier,
		logger:       logging.Component(logger, "service"),
		locations:    append([]int(nil), cfg.Dashboard.LocationIDs...),
		workers:      workers,
		minStatus:    cfg.MinAlertStatus(),
		channels:     cfg.Alerting.Channels,
		alertsOn:     cfg.Alerting.Enabled,
		cooldown:     cfg.Alerting.Cooldown,
		locker:       locker,
		lockKey:      cfg.Scheduler.AdvisoryLockKey,
		lastNotified: make(map[int]time.Time),
		now:          time.Now,
	}
}

// Run begins the aligned evaluation loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	if len(s.locations) == 0 {
		return fmt.Errorf("dashboard.location_ids is empty; nothing to monitor")
	}
	return s.scheduler.Run(ctx, s.ProcessSlot)
}

// ProcessSlot evaluates every configured location for one slot. Locations are
// independent, so they run in parallel; the first failure is returned after
// all locations finish.
func (s *Service) ProcessSlot(ctx context.Context, slot time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("slot", slot).Msg("skip slot because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, locationID := range s.locations {
		locationID := locationID
		g.Go(func() error {
			if _, err := s.Evaluate(ctx, locationID, slot); err != nil {
				s.logger.Error().Err(err).Int("location_id", locationID).Time("slot", slot).Msg("evaluation failed")
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// Evaluate computes, persists and (if warranted) notifies one location's dashboard.
func (s *Service) Evaluate(ctx context.Context, locationID int, at time.Time) ([]forecast.AlertRecord, error) {
	records, err := s.engine.GetDashboard(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("location %d: %w", locationID, err)
	}

	counts := countByStatus(records)
	s.logger.Info().Int("location_id", locationID).
		Time("evaluated_at", at).
		Int("critical", counts[forecast.StatusCritical]).
		Int("warning", counts[forecast.StatusWarning]).
		Int("ok", counts[forecast.StatusOK]).
		Msg("dashboard evaluated")

	if s.store != nil {
		if err := s.store.InsertSnapshot(ctx, locationID, at, records); err != nil {
			s.logger.Error().Err(err).Int("location_id", locationID).Msg("failed to persist snapshot")
		}
	}

	s.maybeNotify(ctx, locationID, at, records)
	return records, nil
}

func (s *Service) maybeNotify(ctx context.Context, locationID int, at time.Time, records []forecast.AlertRecord) {
	if !s.alertsOn || s.notifier == nil {
		return
	}

	note := alerting.Notification{
		LocationID:  locationID,
		EvaluatedAt: at,
		Records:     records,
		MinStatus:   s.minStatus,
		Channels:    s.channels,
	}
	if len(note.Actionable()) == 0 {
		return
	}
	if !s.claimNotification(locationID) {
		s.logger.Debug().Int("location_id", locationID).Msg("notification suppressed by cooldown")
		return
	}

	if err := s.notifier.Notify(ctx, note); err != nil {
		s.releaseNotification(locationID)
		s.logger.Error().Err(err).Int("location_id", locationID).Msg("failed to dispatch alert")
	}
}

// claimNotification reserves the cooldown slot for a location.
func (s *Service) claimNotification(locationID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if last, ok := s.lastNotified[locationID]; ok && s.cooldown > 0 && now.Sub(last) < s.cooldown {
		return false
	}
	s.lastNotified[locationID] = now
	return true
}

func (s *Service) releaseNotification(locationID int) {
	s.mu.Lock()
	delete(s.lastNotified, locationID)
	s.mu.Unlock()
}

func countByStatus(records []forecast.AlertRecord) map[forecast.Status]int {
	counts := make(map[forecast.Status]int, 3)
	for _, rec := range records {
		counts[rec.Status]++
	}
	return counts
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
