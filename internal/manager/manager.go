// Package manager serializes access to a *sim.Engine and owns the
// background tick loop, the one place in this module where Engine.Tick and
// Engine.Submit are reached from concurrent goroutines. Every engine call
// here goes through one mutex — the engine itself forbids reentrant calls
// (spec section 5), so this package is the boundary that makes that
// guarantee true.
package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/slavakukuyev/elevator-go/internal/constants"
	"github.com/slavakukuyev/elevator-go/internal/domain"
	"github.com/slavakukuyev/elevator-go/internal/factory"
	"github.com/slavakukuyev/elevator-go/internal/infra/config"
	"github.com/slavakukuyev/elevator-go/internal/sim"
	"github.com/slavakukuyev/elevator-go/metrics"
)

// Manager wraps a *sim.Engine behind a mutex, runs its tick loop on a
// background goroutine, and translates engine outcomes into the
// domain.DomainError taxonomy the HTTP layer expects. Grounded on
// internal/manager/manager.go's role as the sole owner of elevator state
// behind sync.RWMutex; restructured around one engine instead of a pool,
// since dispatch across cabins is now the engine's own job.
type Manager struct {
	mu     sync.Mutex
	engine *sim.Engine
	cfg    *config.Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Manager with a fresh engine built by factory, but does
// not start the tick loop — call Start for that.
func New(cfg *config.Config, f factory.EngineFactory) (*Manager, error) {
	engine, err := f.CreateEngine(cfg)
	if err != nil {
		return nil, domain.ErrEngineCreation.WithContext("error", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		engine: engine,
		cfg:    cfg,
		logger: slog.With(slog.String("component", constants.ComponentManager)),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start launches the background tick loop: every cfg.TickInterval, advance
// the engine by cfg.TickDelta simulated seconds. Runs until Shutdown.
func (m *Manager) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.TickInterval)
		defer ticker.Stop()

		m.logger.Info("tick loop started",
			slog.Duration("tick_interval", m.cfg.TickInterval),
			slog.Float64("tick_delta", m.cfg.TickDelta))

		for {
			select {
			case <-m.ctx.Done():
				m.logger.Info("tick loop stopped")
				return
			case <-ticker.C:
				m.tick(m.cfg.TickDelta)
			}
		}
	}()
}

// tick advances the engine by one step and refreshes the gauges that only
// make sense as a snapshot-in-time (queue depth, conservation gap, cabin
// state). Counters are updated inline by Submit/Tick's own outcomes.
func (m *Manager) tick(delta float64) {
	start := time.Now()

	m.mu.Lock()
	m.engine.Tick(delta)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	metrics.RecordTickDuration(time.Since(start).Seconds())
	m.publishSnapshot(snapshot)

	for _, ev := range snapshot.events {
		if ev.Kind == sim.EventTimedOut {
			metrics.AddTimedOut(float64(ev.Count))
		}
	}
}

// managerSnapshot is the subset of engine state tick/GetStatus need after
// releasing the lock, so metric publication and logging never happen while
// holding it.
type managerSnapshot struct {
	cabins   []sim.CabinView
	pending  int
	stats    sim.DispatchStats
	conserve sim.ConservationCounters
	events   []sim.Event
}

func (m *Manager) snapshotLocked() managerSnapshot {
	stats, conserve := m.engine.Stats()
	return managerSnapshot{
		cabins:   m.engine.Cabins(),
		pending:  m.engine.PendingCount(),
		stats:    stats,
		conserve: conserve,
		events:   m.engine.Events(),
	}
}

func (m *Manager) publishSnapshot(s managerSnapshot) {
	metrics.SetPendingQueueDepth(float64(s.pending))
	metrics.SetDispatchSuccessRate(s.stats.SuccessRate())
	metrics.SetDispatchMeanWaitSeconds(s.stats.MeanWait())

	onboard := 0
	for _, c := range s.cabins {
		onboard += c.Load
		metrics.SetCabinLoad(c.ID, float64(c.Load))
		metrics.SetCabinCurrentFloor(c.ID, float64(c.CurrentFloor))
	}
	gap := s.conserve.Admitted - s.conserve.Delivered - s.conserve.TimedOut - int64(onboard)
	metrics.SetConservationGap(float64(gap))
}

// Submit admits a floor-to-floor request. The returned error is non-nil
// only for outcomes an HTTP caller should see as a 4xx/5xx response;
// AdmissionAdmitted always returns a nil error.
func (m *Manager) Submit(source, target, count int) (sim.AdmissionOutcome, error) {
	start := time.Now()

	m.mu.Lock()
	outcome := m.engine.Submit(source, target, count)
	m.mu.Unlock()

	metrics.RecordSubmitDuration(time.Since(start).Seconds())
	metrics.IncAdmission(string(outcome))

	switch outcome {
	case sim.AdmissionAdmitted:
		m.logger.Info("request admitted",
			slog.Int("source", source), slog.Int("target", target), slog.Int("count", count))
		return outcome, nil
	case sim.AdmissionRejectedInvalid:
		cfg := m.Config()
		switch {
		case source == target:
			return outcome, domain.ErrRequestFloorsSame.WithContext("source", source).WithContext("target", target)
		case source < 1 || source > cfg.FloorCount || target < 1 || target > cfg.FloorCount:
			return outcome, domain.ErrRequestFloorOutRange.WithContext("source", source).WithContext("target", target)
		default:
			return outcome, domain.ErrRequestCountInvalid.WithContext("count", count)
		}
	case sim.AdmissionDroppedFloor:
		return outcome, domain.ErrRequestDroppedFloor.WithContext("source", source)
	case sim.AdmissionDroppedGlobal:
		return outcome, domain.ErrRequestDroppedGlobal
	default:
		return outcome, domain.NewInternalError("unknown admission outcome", nil).WithContext("outcome", string(outcome))
	}
}

// Tick triggers a single, mutex-serialized engine tick outside the
// background loop, for manual step-mode operation in tests and the
// /v1/tick debugging endpoint.
func (m *Manager) Tick(delta float64) {
	m.tick(delta)
}

// Reset discards all in-flight state and optionally adopts a new engine
// configuration.
func (m *Manager) Reset(cfg sim.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.engine.Reset(cfg); err != nil {
		return domain.ErrInvalidConfig.WithContext("error", err.Error())
	}
	return nil
}

// SetStrategy changes the dispatcher's cost function.
func (m *Manager) SetStrategy(s sim.Strategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.engine.SetStrategy(s); err != nil {
		return domain.ErrInvalidStrategy.WithContext("strategy", string(s))
	}
	return nil
}

// Cabins returns a read-only snapshot of every cabin.
func (m *Manager) Cabins() []sim.CabinView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Cabins()
}

// Waiting returns the observation surface's waiting(floor) view.
func (m *Manager) Waiting(floor int) []sim.WaitingView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Waiting(floor)
}

// PendingCount returns the number of requests not yet assigned to a cabin.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.PendingCount()
}

// Stats exposes the dispatcher's running statistics plus the conservation
// counters.
func (m *Manager) Stats() (sim.DispatchStats, sim.ConservationCounters) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Stats()
}

// Config returns the engine's current immutable configuration.
func (m *Manager) Config() sim.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Config()
}

// GetStatus returns a map suitable for JSON serialization by the HTTP
// status handler, bounded by cfg.HealthCheckTimeout the same way the
// teacher bounded elevator status collection.
func (m *Manager) GetStatus(ctx context.Context) (map[string]interface{}, error) {
	statusCtx, cancel := context.WithTimeout(ctx, m.cfg.HealthCheckTimeout)
	defer cancel()

	type result struct {
		status map[string]interface{}
	}
	resultCh := make(chan result, 1)

	go func() {
		m.mu.Lock()
		cabins := m.engine.Cabins()
		pending := m.engine.PendingCount()
		stats, conserve := m.engine.Stats()
		floorCount := m.engine.Config().FloorCount
		waiting := make(map[int][]sim.WaitingView, floorCount)
		for f := 1; f <= floorCount; f++ {
			waiting[f] = m.engine.Waiting(f)
		}
		m.mu.Unlock()

		resultCh <- result{status: map[string]interface{}{
			"cabins":         cabins,
			"waiting":        waiting,
			"pending_count":  pending,
			"dispatch_stats": stats,
			"conservation":   conserve,
			"timestamp":      time.Now().Format(time.RFC3339),
		}}
	}()

	select {
	case <-statusCtx.Done():
		metrics.IncManagerError("status_timeout")
		return nil, domain.NewInternalError("status collection timed out", statusCtx.Err())
	case r := <-resultCh:
		return r.status, nil
	}
}

// GetHealthStatus reports whether the engine is responding within
// cfg.HealthCheckTimeout and a coarse view of the cabin fleet's health.
func (m *Manager) GetHealthStatus(ctx context.Context) (map[string]interface{}, error) {
	healthCtx, cancel := context.WithTimeout(ctx, m.cfg.HealthCheckTimeout)
	defer cancel()

	type result struct {
		health map[string]interface{}
	}
	resultCh := make(chan result, 1)

	go func() {
		m.mu.Lock()
		cabins := m.engine.Cabins()
		pending := m.engine.PendingCount()
		m.mu.Unlock()

		resultCh <- result{health: map[string]interface{}{
			"cabin_count":    len(cabins),
			"pending_count":  pending,
			"system_healthy": true,
			"timestamp":      time.Now().Format(time.RFC3339),
		}}
	}()

	select {
	case <-healthCtx.Done():
		metrics.IncManagerError("health_timeout")
		return nil, domain.NewInternalError("health status collection timed out", healthCtx.Err())
	case r := <-resultCh:
		return r.health, nil
	}
}

// Shutdown stops the tick loop and waits for it to exit.
func (m *Manager) Shutdown() {
	m.logger.Info("shutting down engine manager")
	m.cancel()
	m.wg.Wait()
	m.logger.Info("engine manager shutdown completed")
}
