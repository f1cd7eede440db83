package sim

import "sort"

// Mode is a cabin's coarse operating state (spec section 3).
type Mode int

const (
	IdleWaiting Mode = iota
	Moving
	Dwelling
)

func (m Mode) String() string {
	switch m {
	case Moving:
		return "MOVING"
	case Dwelling:
		return "DWELLING"
	default:
		return "IDLE_WAITING"
	}
}

// OnboardGroup is a boarded passenger group inside a cabin.
type OnboardGroup struct {
	Source int
	Target int
	Count  int
}

// Cabin is a single elevator car with its own state machine, grounded on
// the teacher's per-cabin Run() scenario table but re-expressed as a
// synchronous Advance(delta) with no suspension points, since tick must be
// total and reentrancy-free (spec sections 4.A, 4.D, 5).
type Cabin struct {
	ID int

	CurrentFloor int
	Direction    Direction
	Mode         Mode

	DwellRemaining  float64
	TravelRemaining float64
	IdleSince       int64   // tick index the cabin last entered IDLE_WAITING
	idleElapsed     float64 // seconds accumulated since IdleSince, for MaxIdleTime

	Stops   []int
	Onboard []OnboardGroup

	Ledger []*WaitingGroup // spec: Assigned Ledger

	cfg Config
}

func newCabin(id int, cfg Config) *Cabin {
	return &Cabin{
		ID:           id,
		CurrentFloor: clampFloor(cfg.HomeFloor, cfg.FloorCount),
		Direction:    IDLE,
		Mode:         IdleWaiting,
		cfg:          cfg,
	}
}

// Load is the total number of persons currently onboard.
func (c *Cabin) Load() int {
	n := 0
	for _, g := range c.Onboard {
		n += g.Count
	}
	return n
}

// hasStop reports whether floor is already in the cabin's stop list
// (duplicates are forbidden by the sorted-insert rule).
func (c *Cabin) hasStop(floor int) bool {
	for _, s := range c.Stops {
		if s == floor {
			return true
		}
	}
	return false
}

// insertStop is the single sorted-insert operation threaded from two call
// sites in the teacher (dispatcher commitment and in-dwell boarding),
// unified per the Design Note "stop list as an ordered set keyed by
// direction". It inserts floor keeping Stops monotone in dir; a cabin with
// no stops simply gains floor as its only stop. insertStop never changes
// Direction: an IDLE cabin adopts the direction toward its first stop in
// advanceIdle. Duplicate inserts are silent no-ops.
func (c *Cabin) insertStop(floor int, dir Direction) {
	if c.hasStop(floor) {
		return
	}
	if len(c.Stops) == 0 {
		c.Stops = []int{floor}
		return
	}
	switch dir {
	case UP:
		idx := sort.SearchInts(c.Stops, floor)
		c.Stops = append(c.Stops, 0)
		copy(c.Stops[idx+1:], c.Stops[idx:])
		c.Stops[idx] = floor
	case DOWN:
		// Stops is strictly descending; search with a reversed comparator.
		idx := sort.Search(len(c.Stops), func(i int) bool { return c.Stops[i] <= floor })
		c.Stops = append(c.Stops, 0)
		copy(c.Stops[idx+1:], c.Stops[idx:])
		c.Stops[idx] = floor
	default:
		c.Stops = append(c.Stops, floor)
	}
}

// isBehind reports whether floor lies on the opposite side of CurrentFloor
// from dir — e.g. a cabin travelling UP being asked to add a stop below its
// current floor.
func (c *Cabin) isBehind(floor int, dir Direction) bool {
	switch dir {
	case UP:
		return floor < c.CurrentFloor
	case DOWN:
		return floor > c.CurrentFloor
	}
	return false
}

// forwardStopExists reports a stop strictly ahead of CurrentFloor in dir,
// ignoring CurrentFloor itself (which may still be present in Stops while a
// dwell at that floor is being completed).
func (c *Cabin) forwardStopExists(dir Direction) bool {
	for _, s := range c.Stops {
		if s == c.CurrentFloor {
			continue
		}
		if dir == UP && s > c.CurrentFloor {
			return true
		}
		if dir == DOWN && s < c.CurrentFloor {
			return true
		}
	}
	return false
}

// recomputeDirection derives Direction from the remaining Stops relative to
// CurrentFloor per spec section 4.D: any stop above means UP, any stop
// below means DOWN (checked in that order so a cabin with stops on both
// sides keeps climbing before it reverses), otherwise IDLE.
func (c *Cabin) recomputeDirection() {
	if len(c.Stops) == 0 {
		c.Direction = IDLE
		return
	}
	hasAbove, hasBelow := false, false
	for _, s := range c.Stops {
		if s > c.CurrentFloor {
			hasAbove = true
		} else if s < c.CurrentFloor {
			hasBelow = true
		}
	}
	switch {
	case hasAbove:
		c.Direction = UP
	case hasBelow:
		c.Direction = DOWN
	default:
		c.Direction = IDLE
	}
}

// Advance steps the cabin's state machine forward by delta seconds. It is
// called once per tick, after the dispatcher's assignment phase, and never
// mutates any container besides its own Stops/Onboard and, during a
// dwell-complete boarding pass, the FloorQueue at CurrentFloor and the
// Assigned Ledger of whichever cabin holds a group it boards or requeues
// (removeFromLedger searches every cabin).
func (c *Cabin) Advance(tick int64, delta float64, building *building, cabins []*Cabin, sink *eventSink) {
	switch c.Mode {
	case IdleWaiting:
		c.advanceIdle(tick, delta, sink)
	case Moving:
		c.advanceMoving(delta)
	case Dwelling:
		c.advanceDwelling(tick, delta, building, cabins, sink)
	}
}

func (c *Cabin) enterIdle(tick int64) {
	c.Mode = IdleWaiting
	c.Direction = IDLE
	c.idleElapsed = 0
	c.IdleSince = tick
}

func (c *Cabin) advanceIdle(tick int64, delta float64, sink *eventSink) {
	if len(c.Stops) > 0 {
		if c.Stops[0] == c.CurrentFloor {
			// A pickup at the cabin's own floor needs no travel: open the
			// doors immediately instead of entering MOVING with a stop
			// equal to CurrentFloor, which the section 3 invariant forbids.
			c.Mode = Dwelling
			c.DwellRemaining = c.cfg.DoorTime
			return
		}
		c.recomputeDirection()
		c.Mode = Moving
		return
	}
	c.idleElapsed += delta
	if c.idleElapsed >= c.cfg.MaxIdleTime && c.CurrentFloor != c.cfg.HomeFloor {
		c.insertStop(c.cfg.HomeFloor, directionOf(c.CurrentFloor, c.cfg.HomeFloor))
		c.recomputeDirection()
		c.Mode = Moving
		c.idleElapsed = 0
	}
}

func (c *Cabin) advanceMoving(delta float64) {
	if len(c.Stops) == 0 {
		// No destination: fall back to idle next tick.
		c.Mode = IdleWaiting
		c.idleElapsed = 0
		return
	}
	c.TravelRemaining += delta
	for c.TravelRemaining >= c.cfg.FloorTravelTime && c.Mode == Moving {
		c.TravelRemaining -= c.cfg.FloorTravelTime
		switch c.Direction {
		case UP:
			c.CurrentFloor++
		case DOWN:
			c.CurrentFloor--
		}
		c.CurrentFloor = clampFloor(c.CurrentFloor, c.cfg.FloorCount)

		if len(c.Stops) > 0 && c.CurrentFloor == c.Stops[0] {
			c.Mode = Dwelling
			c.DwellRemaining = c.cfg.DoorTime
			c.TravelRemaining = 0
		}
	}
}

func (c *Cabin) advanceDwelling(tick int64, delta float64, building *building, cabins []*Cabin, sink *eventSink) {
	c.DwellRemaining -= delta
	if c.DwellRemaining > 0 {
		return
	}
	c.completeDwell(tick, building, cabins, sink)
}

// completeDwell performs alighting then boarding at the current floor, per
// spec section 4.D, then advances Stops/Mode/Direction.
func (c *Cabin) completeDwell(tick int64, building *building, cabins []*Cabin, sink *eventSink) {
	c.alight(sink)

	// The stop at CurrentFloor is satisfied by this dwell; remove it and
	// recompute direction before boarding, so waiting groups are matched
	// against the direction the cabin leaves in (IDLE when no stops remain),
	// then recompute again for the stops boarding added.
	c.removeStop(c.CurrentFloor)
	c.recomputeDirection()
	c.board(building, cabins, sink)
	c.recomputeDirection()

	if len(c.Stops) > 0 {
		c.Mode = Moving
	} else {
		c.enterIdle(tick)
	}
}

func (c *Cabin) removeStop(floor int) {
	for i, s := range c.Stops {
		if s == floor {
			c.Stops = append(c.Stops[:i], c.Stops[i+1:]...)
			return
		}
	}
}

func (c *Cabin) alight(sink *eventSink) {
	kept := c.Onboard[:0]
	for _, g := range c.Onboard {
		if g.Target == c.CurrentFloor {
			sink.emit(Event{Kind: EventDroppedOff, Cabin: c.ID, Source: g.Source, Target: g.Target, Count: g.Count})
			continue
		}
		kept = append(kept, g)
	}
	c.Onboard = kept
}

func (c *Cabin) board(building *building, cabins []*Cabin, sink *eventSink) {
	queue := building.floorQueue(c.CurrentFloor)
	available := c.cfg.Capacity - c.Load()
	if available <= 0 {
		return
	}

	boardDir := c.Direction
	boarded, partial, _ := queue.takeBoardable(boardDir, available)
	if partial != nil {
		// The residual kept its identity but had assignedCabin cleared to
		// -1 by the split (spec section 3's Assigned Ledger only tracks
		// committed, not-yet-boarded groups); drop its stale ledger entry
		// along with it.
		removeFromLedger(cabins, partial)
	}
	for _, g := range boarded {
		insertDir := boardDir
		if insertDir == IDLE {
			// An IDLE cabin adopts the direction of the first group it
			// boards this dwell; later groups in the same pass are judged
			// against that adopted direction, not against IDLE again.
			insertDir = directionOf(c.CurrentFloor, g.Target)
		}

		// Resolved open question (spec section 9): a boarding stop behind
		// the cabin's current direction is only inserted when the forward
		// stops are already empty; otherwise this group is left unboarded
		// for reconsideration on a later dwell at this floor.
		if c.isBehind(g.Target, insertDir) && c.forwardStopExists(insertDir) {
			g.assignedCabin = -1
			g.boarded = false
			removeFromLedger(cabins, g)
			building.requeueAtHead(c.CurrentFloor, g)
			continue
		}

		c.Onboard = append(c.Onboard, OnboardGroup{Source: g.Source, Target: g.Target, Count: g.Count})
		c.insertStop(g.Target, insertDir)
		// The group may have been committed to a different cabin than the
		// one boarding it (spec section 4.D step 2 boards any
		// direction-compatible waiting group at a dwell); search every
		// cabin's ledger rather than only this one's.
		removeFromLedger(cabins, g)
		if boardDir == IDLE {
			boardDir = insertDir
		}
		sink.emit(Event{Kind: EventPickedUp, Cabin: c.ID, Source: g.Source, Target: g.Target, Count: g.Count})
	}
}

// removeFromLedger clears g's entry from whichever cabin's Assigned Ledger
// currently holds it. A group's ledger entry is appended by the cabin the
// dispatcher committed it to (engine.go), but it can be cleared or boarded
// by a different cabin entirely, so this always searches every cabin rather
// than trusting the caller's own Ledger.
func removeFromLedger(cabins []*Cabin, g *WaitingGroup) {
	for _, c := range cabins {
		for i, l := range c.Ledger {
			if l == g {
				c.Ledger = append(c.Ledger[:i], c.Ledger[i+1:]...)
				return
			}
		}
	}
}
