package manager

import (
	"context"
	"testing"
	"time"

	"github.com/slavakukuyev/elevator-go/internal/domain"
	"github.com/slavakukuyev/elevator-go/internal/factory"
	"github.com/slavakukuyev/elevator-go/internal/infra/config"
	"github.com/slavakukuyev/elevator-go/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCfg() *config.Config {
	return &config.Config{
		FloorCount:             10,
		CabinCount:             2,
		Capacity:               4,
		FloorTravelTime:        1.0,
		DoorTime:               1.0,
		MaxIdleTime:            10.0,
		MaxWaitTime:            30.0,
		HomeFloor:              1,
		MaxRequestsPerFloor:    2,
		MaxTotalInflight:       20,
		MaxPerCabinAssignments: 8,
		Strategy:               "load-aware",
		TickInterval:           10 * time.Millisecond,
		TickDelta:              1.0,
		EngineOperationTimeout: 500 * time.Millisecond,
		HealthCheckTimeout:     200 * time.Millisecond,
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(testCfg(), factory.StandardEngineFactory{})
	require.NoError(t, err)
	return m
}

func TestManager_Submit_Admitted(t *testing.T) {
	m := newTestManager(t)

	outcome, err := m.Submit(1, 5, 2)

	assert.Equal(t, sim.AdmissionAdmitted, outcome)
	assert.NoError(t, err)
}

func TestManager_Submit_RejectsInvalidRequest(t *testing.T) {
	m := newTestManager(t)

	outcome, err := m.Submit(1, 1, 1)

	assert.Equal(t, sim.AdmissionRejectedInvalid, outcome)
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrTypeValidation, domainErr.Type)
}

func TestManager_Submit_EnforcesPerFloorCap(t *testing.T) {
	cfg := testCfg()
	cfg.MaxRequestsPerFloor = 1
	m, err := New(cfg, factory.StandardEngineFactory{})
	require.NoError(t, err)

	outcome1, err1 := m.Submit(2, 6, 1)
	require.NoError(t, err1)
	assert.Equal(t, sim.AdmissionAdmitted, outcome1)

	outcome2, err2 := m.Submit(2, 7, 1)
	require.Error(t, err2)
	assert.Equal(t, sim.AdmissionDroppedFloor, outcome2)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err2, &domainErr)
	assert.Equal(t, domain.ErrTypeConflict, domainErr.Type)
}

func TestManager_Tick_AdvancesEngineAndUpdatesStats(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Submit(1, 5, 2)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		m.Tick(1.0)
	}

	_, conserve := m.Stats()
	assert.EqualValues(t, 2, conserve.Admitted)
}

func TestManager_SetStrategy_RejectsUnknown(t *testing.T) {
	m := newTestManager(t)

	err := m.SetStrategy(sim.Strategy("bogus"))
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrTypeValidation, domainErr.Type)

	assert.NoError(t, m.SetStrategy(sim.StrategyNearestFirst))
}

func TestManager_Reset_AdoptsNewConfig(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Submit(1, 5, 2)
	require.NoError(t, err)

	newCfg := sim.DefaultConfig()
	newCfg.CabinCount = 3
	require.NoError(t, m.Reset(newCfg))

	assert.Len(t, m.Cabins(), 3)
	assert.Equal(t, 0, m.PendingCount())
}

func TestManager_GetStatus_ReturnsSnapshot(t *testing.T) {
	m := newTestManager(t)

	status, err := m.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Contains(t, status, "cabins")
	assert.Contains(t, status, "pending_count")
}

func TestManager_GetHealthStatus_ReportsHealthy(t *testing.T) {
	m := newTestManager(t)

	health, err := m.GetHealthStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, health["system_healthy"])
	assert.Equal(t, 2, health["cabin_count"])
}

func TestManager_StartAndShutdown_RunsTickLoop(t *testing.T) {
	m := newTestManager(t)
	m.Start()

	_, err := m.Submit(1, 5, 1)
	require.NoError(t, err)

	// Give the background ticker a handful of cycles to drive the cabin
	// toward its pickup.
	time.Sleep(150 * time.Millisecond)

	m.Shutdown()

	cabins := m.Cabins()
	moved := false
	for _, c := range cabins {
		if c.CurrentFloor != 1 || c.Mode != sim.IdleWaiting {
			moved = true
		}
	}
	assert.True(t, moved, "expected the tick loop to have advanced at least one cabin")
}
