// Package scheduler drives the periodic check-and-cleanup cycle and hands
// newly stored alerts to the dispatch workers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/go-maintenance-alerts/internal/alerts"
	"github.com/mr1hm/go-maintenance-alerts/internal/config"
	"github.com/mr1hm/go-maintenance-alerts/internal/models"
	"github.com/mr1hm/go-maintenance-alerts/internal/repository"
	"github.com/mr1hm/go-maintenance-alerts/internal/store"
	"github.com/mr1hm/go-maintenance-alerts/internal/worker"
)

// Broadcaster receives every alert that enters the store.
type Broadcaster interface {
	Broadcast(a *models.Alert)
}

type CycleResult struct {
	Detected int `json:"detected"`
	Added    int `json:"added"`
	Removed  int `json:"removed"`
}

type Manager struct {
	cfg         *config.Config
	source      repository.SnapshotSource
	engine      *alerts.Engine
	store       *store.Store
	broadcaster Broadcaster
	pool        *worker.Pool[*models.Alert]
	now         func() time.Time

	mu      sync.RWMutex
	ctx     context.Context
	stopped bool
	cycleMu sync.Mutex
	wg      sync.WaitGroup
}

func NewManager(cfg *config.Config, source repository.SnapshotSource, engine *alerts.Engine, st *store.Store, broadcaster Broadcaster) *Manager {
	return &Manager{
		cfg:         cfg,
		source:      source,
		engine:      engine,
		store:       st,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Start launches the dispatch workers and the check loop. The loop stops
// when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.pool = worker.NewPool[*models.Alert]("alert-dispatch", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, m.dispatch)
	m.pool.Start(ctx)

	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(ctx, m.cfg.Scheduler.CheckInterval)
}

func (m *Manager) run(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting alert scheduler", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.startup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("alert scheduler shutting down")
			return
		case <-ticker.C:
			if _, err := m.Cycle(ctx); err != nil {
				slog.Error("alert cycle failed", "error", err)
			}
		}
	}
}

// startup runs the detection rules once, provided both input collections
// already hold data. Otherwise the first tick does the work.
func (m *Manager) startup(ctx context.Context) {
	checklists, requests, err := m.snapshot(ctx)
	if err != nil {
		slog.Error("initial alert check failed", "error", err)
		return
	}
	if len(checklists) == 0 || len(requests) == 0 {
		slog.Debug("initial alert check deferred, inputs not available",
			"checklists", len(checklists), "requests", len(requests))
		return
	}

	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	detected, added := m.check(ctx, checklists, requests)
	slog.Info("initial alert check complete", "detected", detected, "added", added)
}

// Cycle runs the detection rules against fresh snapshots, merges the
// result into the store and then sweeps expired and exhausted alerts.
func (m *Manager) Cycle(ctx context.Context) (CycleResult, error) {
	checklists, requests, err := m.snapshot(ctx)
	if err != nil {
		return CycleResult{}, err
	}

	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	var res CycleResult
	res.Detected, res.Added = m.check(ctx, checklists, requests)
	res.Removed = m.Cleanup()

	slog.Debug("alert cycle complete", "detected", res.Detected, "added", res.Added, "removed", res.Removed)
	return res, nil
}

// Cleanup sweeps the store with the engine's expiry policy.
func (m *Manager) Cleanup() int {
	now := m.now()
	return m.store.Sweep(func(in []*models.Alert) []*models.Alert {
		return m.engine.CleanupExpiredAlerts(in, now)
	})
}

// Add merges alerts created outside the detection cycle, such as custom
// alerts, and dispatches the ones that were new.
func (m *Manager) Add(ctx context.Context, batch ...*models.Alert) []*models.Alert {
	added := m.store.Merge(batch)
	m.enqueue(ctx, added)
	return added
}

func (m *Manager) check(ctx context.Context, checklists []models.Checklist, requests []models.MaintenanceRequest) (detected, added int) {
	batch := m.engine.RunAutomaticChecks(checklists, requests, m.now())
	m.store.PruneDismissed(batch)
	inserted := m.store.Merge(batch)
	m.enqueue(ctx, inserted)
	return len(batch), len(inserted)
}

func (m *Manager) snapshot(ctx context.Context) ([]models.Checklist, []models.MaintenanceRequest, error) {
	checklists, err := m.source.ListChecklists(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading checklists: %w", err)
	}
	requests, err := m.source.ListRequests(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading requests: %w", err)
	}
	return checklists, requests, nil
}

func (m *Manager) enqueue(ctx context.Context, added []*models.Alert) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.pool == nil || m.stopped {
		return
	}
	for _, a := range added {
		if err := m.submit(ctx, a); err != nil {
			slog.Warn("alert dispatch skipped", "alert_id", a.ID, "error", err)
			return
		}
	}
}

// submit gives up when either the caller's or the scheduler's context ends,
// so a stopping pool never blocks a request.
func (m *Manager) submit(ctx context.Context, a *models.Alert) error {
	if m.ctx == nil {
		return m.pool.SubmitContext(ctx, a)
	}
	merged, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.ctx, cancel)
	defer stop()
	return m.pool.SubmitContext(merged, a)
}

func (m *Manager) dispatch(ctx context.Context, a *models.Alert) error {
	if m.broadcaster != nil {
		m.broadcaster.Broadcast(a)
	}
	if m.engine.Settings().EmailNotifications {
		slog.Info("notification requested",
			"alert_id", a.ID,
			"severity", a.Severity,
			"department", a.Department,
			"assigned_to", a.AssignedTo)
	}
	return nil
}

func (m *Manager) Stop() {
	m.wg.Wait()

	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	if m.pool != nil {
		m.pool.Stop()
	}
	slog.Info("alert scheduler stopped")
}
