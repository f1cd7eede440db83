package sim

import "fmt"

// AdmissionOutcome is the typed rejection/acceptance Request Intake
// reports to its caller (spec section 4.B / 7).
type AdmissionOutcome string

const (
	AdmissionAdmitted        AdmissionOutcome = "admitted"
	AdmissionDroppedFloor    AdmissionOutcome = "dropped:per_floor_cap"
	AdmissionDroppedGlobal   AdmissionOutcome = "dropped:global_cap"
	AdmissionRejectedInvalid AdmissionOutcome = "rejected:invalid_request"
)

// ConservationCounters tracks the section 8 "conservation of persons"
// quantities across the engine's lifetime, for tests and the /v1/stats
// surface.
type ConservationCounters struct {
	Admitted  int64
	Delivered int64
	TimedOut  int64
}

// Engine is the dispatch-and-motion core's single entry point: one
// tick(delta), submit/enqueue, reset, and the read-only Observation
// Surface (spec sections 4.A-4.F). Grounded on internal/manager/manager.go's
// role as sole owner of the elevator collection, restructured around one
// synchronous tick instead of always-on background goroutines.
type Engine struct {
	cfg        Config
	building   *building
	cabins     []*Cabin
	dispatcher *Dispatcher
	events     *eventSink
	conserve   ConservationCounters
	tickCount  int64
	seqCounter int64
}

// NewEngine constructs an Engine ready to run, with CabinCount cabins at
// HomeFloor, IDLE_WAITING, exactly the reset state in spec section 5.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{}
	e.reset(cfg)
	return e, nil
}

func (e *Engine) reset(cfg Config) {
	e.cfg = cfg
	e.building = newBuilding(cfg.FloorCount)
	e.dispatcher = newDispatcher(cfg)
	e.events = newEventSink()
	e.conserve = ConservationCounters{}
	e.tickCount = 0
	e.seqCounter = 0
	e.cabins = make([]*Cabin, cfg.CabinCount)
	for i := 0; i < cfg.CabinCount; i++ {
		e.cabins[i] = newCabin(i+1, cfg)
	}
	e.events.onEvent = func(ev Event) {
		if ev.Kind == EventDroppedOff {
			e.conserve.Delivered += int64(ev.Count)
		}
	}
}

// Reset discards all Pending, all Floor Queues, and every Cabin's state,
// optionally adopting a new Config (Design Note "global mutable
// configuration": a Config change only takes effect across a Reset).
// Idempotent: reset(); reset() with the same cfg is observationally
// equivalent to one reset() (spec section 8).
func (e *Engine) Reset(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.reset(cfg)
	e.events.emit(Event{Kind: EventReset, Cabin: -1})
	return nil
}

// SetStrategy changes the dispatcher's cost function and resets its
// per-strategy statistics (spec section 4.C).
func (e *Engine) SetStrategy(s Strategy) error {
	switch s {
	case StrategyLoadAware, StrategyNearestFirst, StrategyEnergySaving:
	default:
		return fmt.Errorf("sim: unknown strategy %q", s)
	}
	e.dispatcher.setStrategy(s)
	e.events.emit(Event{Kind: EventStrategyChanged, Cabin: -1})
	return nil
}

// Submit validates and admits a floor-to-floor request, per spec section
// 4.B. It never blocks and never panics; every outcome is a typed
// AdmissionOutcome.
func (e *Engine) Submit(source, target, count int) AdmissionOutcome {
	r := Request{Source: source, Target: target, Count: count, SubmittedAt: e.tickCount}
	if err := r.validate(e.cfg); err != nil {
		return AdmissionRejectedInvalid
	}

	if e.countAtFloor(source) >= e.cfg.MaxRequestsPerFloor {
		e.events.emit(Event{Kind: EventDropped, Source: source, Target: target, Count: count, Reason: "per_floor_cap", Cabin: -1})
		return AdmissionDroppedFloor
	}
	if e.totalInflight() >= e.cfg.MaxTotalInflight {
		e.events.emit(Event{Kind: EventDropped, Source: source, Target: target, Count: count, Reason: "global_cap", Cabin: -1})
		return AdmissionDroppedGlobal
	}

	e.seqCounter++
	g := newWaitingGroup(r, e.seqCounter)
	e.building.admit(g)
	e.conserve.Admitted += int64(count)
	e.events.emit(Event{Kind: EventAdmitted, Source: source, Target: target, Count: count, Cabin: -1})
	return AdmissionAdmitted
}

// countAtFloor counts requests (not persons) currently in Pending or
// Assigned for source, enforcing MAX_REQUESTS_PER_FLOOR "across Pending ∪
// Assigned" per spec section 4.B.
func (e *Engine) countAtFloor(floor int) int {
	return len(e.building.floorQueue(floor).groups)
}

// totalInflight counts every live request (pending, assigned, or already
// onboard) for MAX_TOTAL_INFLIGHT.
func (e *Engine) totalInflight() int {
	n := 0
	for f := 1; f <= e.cfg.FloorCount; f++ {
		n += len(e.building.floorQueue(f).groups)
	}
	for _, c := range e.cabins {
		n += len(c.Onboard)
	}
	return n
}

// Tick performs one full update cycle in the fixed order spec section 4.A
// requires: advance wait timers and evict timeouts; drain Pending into
// dispatch assignment; advance each Cabin; emit the observation snapshot
// (callers read it via the Observation Surface methods below, not a return
// value, keeping tick itself a pure state advance). Reentrant calls are
// forbidden by the caller contract in spec section 5; Engine itself does
// not guard against it (that guarantee lives one layer up, in the manager
// that serializes access — see internal/manager).
func (e *Engine) Tick(delta float64) {
	e.tickCount++
	e.events.tick = e.tickCount

	// Phase 1: advance wait timers, drop timed-out waiting groups.
	evicted := e.building.advanceWaitAll(delta, e.cfg.MaxWaitTime)
	for _, g := range evicted {
		e.conserve.TimedOut += int64(g.Count)
		e.events.emit(Event{Kind: EventTimedOut, Source: g.Source, Target: g.Target, Count: g.Count, Cabin: -1})
	}

	// Phase 2: drain Pending into dispatch assignment.
	for _, g := range e.building.pending() {
		cabinID, ok := e.dispatcher.Assign(e.cabins, g)
		if !ok {
			continue
		}
		c := e.cabinByID(cabinID)
		g.assignedCabin = cabinID
		c.Ledger = append(c.Ledger, g)
		// Only the pickup stop is inserted at commitment; the drop-off
		// stop is inserted once the passenger actually boards (cabin.go's
		// board(), which already carries the resolved open-question rule
		// for stops that would land behind the cabin's direction). Doing
		// both here would sometimes require the dropoff to sort ahead of
		// the still-unvisited pickup under a strict single-direction
		// monotonic list, which is exactly the case section 9 rules out.
		c.insertStop(g.Source, pickDirection(c.Direction, directionOf(c.CurrentFloor, g.Source)))
		e.events.emit(Event{Kind: EventAssigned, Cabin: cabinID, Source: g.Source, Target: g.Target, Count: g.Count})
	}

	// Phase 3: advance each Cabin state machine by delta.
	for _, c := range e.cabins {
		c.Advance(e.tickCount, delta, e.building, e.cabins, e.events)
	}

	// Phase 4: observation snapshot is emitted implicitly; external layers
	// poll Cabins/Waiting/PendingCount/Events below.
}

// pickDirection is the direction used for a sorted-insert: once a cabin has
// an established direction, new assignment-time inserts must respect it
// rather than whatever the raw floor delta implies, mirroring the same
// "adopt on first stop, then hold" rule cabin.go's board() uses for
// in-dwell boarding.
func pickDirection(established, fallback Direction) Direction {
	if established == IDLE {
		return fallback
	}
	return established
}

func (e *Engine) cabinByID(id int) *Cabin {
	for _, c := range e.cabins {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// --- Observation Surface (spec section 4.F) ---

// CabinView is the read-only shape external collaborators see.
type CabinView struct {
	ID           int
	CurrentFloor int
	Direction    Direction
	Load         int
	Capacity     int
	Mode         Mode
	Stops        []int
}

// Cabins returns a read-only snapshot of every cabin.
func (e *Engine) Cabins() []CabinView {
	views := make([]CabinView, 0, len(e.cabins))
	for _, c := range e.cabins {
		stops := make([]int, len(c.Stops))
		copy(stops, c.Stops)
		views = append(views, CabinView{
			ID:           c.ID,
			CurrentFloor: c.CurrentFloor,
			Direction:    c.Direction,
			Load:         c.Load(),
			Capacity:     e.cfg.Capacity,
			Mode:         c.Mode,
			Stops:        stops,
		})
	}
	return views
}

// Waiting returns the Observation Surface's waiting(floor) view.
func (e *Engine) Waiting(floor int) []WaitingView {
	return e.building.waiting(floor)
}

// PendingCount returns the Observation Surface's pending_count().
func (e *Engine) PendingCount() int {
	return e.building.pendingCount()
}

// Events drains and returns every event raised since the last call,
// per spec section 4.F's "event stream since last poll".
func (e *Engine) Events() []Event {
	return e.events.drain()
}

// Stats exposes the dispatcher's running statistics plus the conservation
// counters, for the /v1/stats surface and property tests.
func (e *Engine) Stats() (DispatchStats, ConservationCounters) {
	return e.dispatcher.stats, e.conserve
}

// Config returns the engine's current immutable configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// TickCount is the number of Tick calls since the last Reset.
func (e *Engine) TickCount() int64 {
	return e.tickCount
}
