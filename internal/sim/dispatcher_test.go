package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_Assign_PrefersNearestUnderLoadAware(t *testing.T) {
	cfg := testConfig()
	d := newDispatcher(cfg)

	near := newCabin(1, cfg)
	near.CurrentFloor = 4
	far := newCabin(2, cfg)
	far.CurrentFloor = 9

	g := newWaitingGroup(Request{Source: 5, Target: 8, Count: 1}, 1)

	id, ok := d.Assign([]*Cabin{near, far}, g)
	require.True(t, ok)
	assert.Equal(t, near.ID, id)
	assert.Equal(t, int64(1), d.stats.TotalAssignments)
	assert.Equal(t, int64(1), d.stats.SuccessfulAssignments)
}

func TestDispatcher_Assign_RecordsMeanWaitOnSuccess(t *testing.T) {
	cfg := testConfig()
	d := newDispatcher(cfg)

	c := newCabin(1, cfg)
	g := newWaitingGroup(Request{Source: 1, Target: 5, Count: 1}, 1)
	g.WaitElapsed = 3.5

	_, ok := d.Assign([]*Cabin{c}, g)
	require.True(t, ok)
	assert.Equal(t, 3.5, d.stats.MeanWait())

	g2 := newWaitingGroup(Request{Source: 1, Target: 5, Count: 1}, 2)
	g2.WaitElapsed = 0.5
	_, ok = d.Assign([]*Cabin{c}, g2)
	require.True(t, ok)
	assert.Equal(t, 2.0, d.stats.MeanWait())
}

func TestDispatcher_Assign_NoFeasibleCabinReturnsFalse(t *testing.T) {
	cfg := testConfig()
	cfg.CabinCount = 1
	d := newDispatcher(cfg)

	full := newCabin(1, cfg)
	full.CurrentFloor = 3
	full.Onboard = []OnboardGroup{{Source: 1, Target: 2, Count: cfg.Capacity}}

	g := newWaitingGroup(Request{Source: 3, Target: 7, Count: 1}, 1)

	_, ok := d.Assign([]*Cabin{full}, g)
	assert.False(t, ok)
	assert.Equal(t, int64(1), d.stats.TotalAssignments)
	assert.Equal(t, int64(0), d.stats.SuccessfulAssignments)
}

func TestDispatcher_Feasible_DirectionMismatchExcluded(t *testing.T) {
	cfg := testConfig()
	d := newDispatcher(cfg)

	c := newCabin(1, cfg)
	c.CurrentFloor = 5
	c.Direction = UP

	// Request travels DOWN from a floor above the cabin: incompatible.
	g := newWaitingGroup(Request{Source: 8, Target: 2, Count: 1}, 1)
	assert.False(t, d.feasible(c, g))

	// Request travels UP from a floor at/above the cabin: compatible.
	g2 := newWaitingGroup(Request{Source: 6, Target: 9, Count: 1}, 2)
	assert.True(t, d.feasible(c, g2))
}

func TestDispatcher_Feasible_RespectsMaxPerCabinAssignments(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPerCabinAssignments = 1
	d := newDispatcher(cfg)

	c := newCabin(1, cfg)
	c.Ledger = []*WaitingGroup{newWaitingGroup(Request{Source: 1, Target: 2, Count: 1}, 1)}

	g := newWaitingGroup(Request{Source: 1, Target: 3, Count: 1}, 2)
	assert.False(t, d.feasible(c, g))
}

func TestDispatcher_SetStrategy_ResetsStats(t *testing.T) {
	cfg := testConfig()
	d := newDispatcher(cfg)
	d.stats.TotalAssignments = 5
	d.stats.SuccessfulAssignments = 3

	d.setStrategy(StrategyNearestFirst)

	assert.Equal(t, int64(0), d.stats.TotalAssignments)
	assert.Equal(t, int64(0), d.stats.SuccessfulAssignments)
	assert.Equal(t, StrategyNearestFirst, d.cfg.Strategy)
}

func TestDispatcher_Cost_EnergySavingPenalizesIdleCabin(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy = StrategyEnergySaving
	d := newDispatcher(cfg)

	idle := newCabin(1, cfg)
	idle.CurrentFloor = 1
	idle.Direction = IDLE

	moving := newCabin(2, cfg)
	moving.CurrentFloor = 1
	moving.Direction = UP
	moving.Stops = []int{9}

	g := newWaitingGroup(Request{Source: 5, Target: 9, Count: 1}, 1)

	assert.Greater(t, d.cost(idle, g), d.cost(moving, g))
}
