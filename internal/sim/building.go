package sim

import "sort"

// building owns every FloorQueue, per spec section 3's ownership rule
// ("the building exclusively owns Floor Queues"). The Pending Queue is
// deliberately NOT a separately maintained slice: per SPEC_FULL's
// resolution of the three-container design note, a WaitingGroup is
// "pending" exactly when it physically sits in a FloorQueue with no
// assigned cabin yet, so Pending is computed on demand from that single
// source of truth instead of synchronized by hand on every admit, assign,
// split, timeout, and board. This removes the duplicate/negative-count bug
// class the design note describes by construction: there is nothing to
// get out of sync.
type building struct {
	floorCount int
	queues     map[int]*FloorQueue
}

func newBuilding(floorCount int) *building {
	b := &building{
		floorCount: floorCount,
		queues:     make(map[int]*FloorQueue, floorCount),
	}
	for f := 1; f <= floorCount; f++ {
		b.queues[f] = newFloorQueue(f)
	}
	return b
}

func (b *building) floorQueue(floor int) *FloorQueue {
	return b.queues[floor]
}

// admit enqueues a freshly admitted WaitingGroup at its source floor.
func (b *building) admit(g *WaitingGroup) {
	b.queues[g.Source].enqueue(g)
}

// requeueAtHead reinserts g at the front of floor's queue. Used when a
// group is pulled out by takeBoardable but rejected by the cabin's
// monotonicity check (the resolved open question in spec section 9). If g
// is still in the queue it is moved, never held twice.
func (b *building) requeueAtHead(floor int, g *WaitingGroup) {
	q := b.queues[floor]
	q.removeByPointer(g)
	q.groups = append([]*WaitingGroup{g}, q.groups...)
}

// pending returns every unassigned, unboarded WaitingGroup across all
// floors, in admission order, exactly the "global insertion-ordered queue
// of requests not yet assigned to any cabin" spec section 3 names.
func (b *building) pending() []*WaitingGroup {
	var out []*WaitingGroup
	for f := 1; f <= b.floorCount; f++ {
		for _, g := range b.queues[f].groups {
			if !g.isAssigned() && !g.boarded && g.Count > 0 {
				out = append(out, g)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// pendingCount is the Observation Surface's pending_count().
func (b *building) pendingCount() int {
	return len(b.pending())
}

// advanceWaitAll runs FloorQueue.advanceWait on every floor, returning
// every group evicted for exceeding MaxWaitTime this tick.
func (b *building) advanceWaitAll(delta, maxWaitTime float64) []*WaitingGroup {
	var allEvicted []*WaitingGroup
	for f := 1; f <= b.floorCount; f++ {
		allEvicted = append(allEvicted, b.queues[f].advanceWait(delta, maxWaitTime)...)
	}
	return allEvicted
}

// waiting returns the Observation Surface's waiting(floor) shape: one
// (target_floor, count) pair per waiting group at that floor, assigned or
// not (a cabin already committed to pick a group up does not stop counting
// as "waiting" until it actually boards).
func (b *building) waiting(floor int) []WaitingView {
	q, ok := b.queues[floor]
	if !ok {
		return nil
	}
	views := make([]WaitingView, 0, len(q.groups))
	for _, g := range q.groups {
		views = append(views, WaitingView{Target: g.Target, Count: g.Count})
	}
	return views
}

// WaitingView is the read-only (target_floor, count) pair the Observation
// Surface reports per floor (spec section 4.F).
type WaitingView struct {
	Target int
	Count  int
}
