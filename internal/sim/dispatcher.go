package sim

import "math"

// DispatchStats mirrors AutoEscalator/src/dispatcher.cpp's Statistics
// struct (total/successful assignments, running mean wait time, running
// mean travel distance) — named explicitly in spec section 4.C's
// strategy-variant text but omitted from the distilled data model, so this
// is a gap-fill rather than new scope. Reset whenever the strategy changes
// (spec section 4.C: "changing strategy resets per-strategy statistics").
type DispatchStats struct {
	TotalAssignments      int64
	SuccessfulAssignments int64
	totalWait             float64
	totalDistance         float64
	servedCount           int64
}

// MeanWait is the running mean wait time (seconds) of served requests.
func (s *DispatchStats) MeanWait() float64 {
	if s.servedCount == 0 {
		return 0
	}
	return s.totalWait / float64(s.servedCount)
}

// MeanDistance is the running mean travel distance (floors) of assignments.
func (s *DispatchStats) MeanDistance() float64 {
	if s.TotalAssignments == 0 {
		return 0
	}
	return s.totalDistance / float64(s.TotalAssignments)
}

// SuccessRate is SuccessfulAssignments / TotalAssignments.
func (s *DispatchStats) SuccessRate() float64 {
	if s.TotalAssignments == 0 {
		return 0
	}
	return float64(s.SuccessfulAssignments) / float64(s.TotalAssignments)
}

func (s *DispatchStats) recordServed(waitSeconds float64) {
	s.totalWait += waitSeconds
	s.servedCount++
}

// Dispatcher chooses a serving cabin for each pending request, per spec
// section 4.C. Grounded on the teacher's chooseElevator/findNearestElevator
// candidate-filter-then-score shape (internal/manager/manager.go), with the
// three named strategies reinstated from
// original_source/AutoEscalator/src/dispatcher.cpp's Strategy enum.
type Dispatcher struct {
	cfg   Config
	stats DispatchStats
}

func newDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg}
}

func (d *Dispatcher) setStrategy(s Strategy) {
	d.cfg.Strategy = s
	d.stats = DispatchStats{}
}

// Assign chooses a cabin for g, returning its id and true on success, or
// (0, false) meaning "none" — leave pending and retry next tick. It never
// mutates a cabin's Stops/Ledger itself when called from the dispatch
// phase's candidate evaluation; the caller (Engine) performs the actual
// commitment so the dispatcher's own logic stays a pure selection, per the
// Design Note "dispatcher-to-cabin handoff" (it reads cabin snapshots only).
func (d *Dispatcher) Assign(cabins []*Cabin, g *WaitingGroup) (int, bool) {
	bestIdx := -1
	bestCost := 0.0

	for i, c := range cabins {
		if !d.feasible(c, g) {
			continue
		}
		cost := d.cost(c, g)
		if bestIdx == -1 || cost < bestCost || (cost == bestCost && c.ID < cabins[bestIdx].ID) {
			bestIdx = i
			bestCost = cost
		}
	}

	d.stats.TotalAssignments++
	if bestIdx == -1 {
		return 0, false
	}
	d.stats.SuccessfulAssignments++
	d.stats.totalDistance += float64(Distance(cabins[bestIdx].CurrentFloor, g.Source))
	// Matches AutoEscalator/src/dispatcher.cpp's assignElevator, which folds
	// passenger.getWaitTime() into averageWaitTime at the exact instant of
	// assignment rather than at drop-off.
	d.stats.recordServed(g.WaitElapsed)
	return cabins[bestIdx].ID, true
}

// feasible implements the spec section 4.C feasibility filter.
func (d *Dispatcher) feasible(c *Cabin, g *WaitingGroup) bool {
	if c.Load()+g.Count > d.cfg.Capacity {
		return false
	}
	if len(c.Ledger) >= d.cfg.MaxPerCabinAssignments {
		return false
	}
	switch c.Direction {
	case IDLE:
		return true
	case UP:
		return g.Source >= c.CurrentFloor && g.direction() == UP
	case DOWN:
		return g.Source <= c.CurrentFloor && g.direction() == DOWN
	}
	return false
}

// cost implements the three strategy variants.
func (d *Dispatcher) cost(c *Cabin, g *WaitingGroup) float64 {
	distance := float64(Distance(c.CurrentFloor, g.Source))

	switch d.cfg.Strategy {
	case StrategyNearestFirst:
		return distance
	case StrategyEnergySaving:
		if c.Direction == IDLE {
			return distance * 2
		}
		return distance
	default: // StrategyLoadAware
		// 10 points per 100% of capacity used, in 10%-wide steps: full
		// load scores 10, each additional 10% of capacity adds 1.
		loadFactorPenalty := math.Floor(float64(c.Load()) / float64(d.cfg.Capacity) * 10)
		directionPenalty := 0.0
		switch {
		case c.Direction == IDLE:
			directionPenalty = 5
		case c.Direction != g.direction():
			directionPenalty = 15
		}
		queuePenalty := float64(2 * len(c.Ledger))
		detourPenalty := 0.0
		if !d.onPath(c, g.Source) {
			detourPenalty = 10
		}
		nearFullPenalty := 0.0
		if float64(c.Load()+g.Count) > 0.8*float64(d.cfg.Capacity) {
			nearFullPenalty = 20
		}
		return distance + loadFactorPenalty + directionPenalty + queuePenalty + detourPenalty + nearFullPenalty
	}
}

// onPath reports whether floor lies between the cabin's current floor and
// its last committed stop in its travel direction — used by detourPenalty.
func (d *Dispatcher) onPath(c *Cabin, floor int) bool {
	if len(c.Stops) == 0 {
		return true
	}
	last := c.Stops[len(c.Stops)-1]
	lo, hi := c.CurrentFloor, last
	if lo > hi {
		lo, hi = hi, lo
	}
	return floor >= lo && floor <= hi
}
