package sim

import "fmt"

// Request is a raw floor-to-floor passenger request as submitted at
// Intake, before it becomes a WaitingGroup.
type Request struct {
	Source      int
	Target      int
	Count       int
	SubmittedAt int64 // tick index at admission
}

// direction reports the travel direction implied by Source->Target.
func (r Request) direction() Direction {
	return directionOf(r.Source, r.Target)
}

func (r Request) validate(cfg Config) error {
	if r.Source == r.Target {
		return fmt.Errorf("source and target floor must differ")
	}
	if !Floor(r.Source).InRange(cfg.FloorCount) || !Floor(r.Target).InRange(cfg.FloorCount) {
		return fmt.Errorf("floor out of range [1,%d]", cfg.FloorCount)
	}
	if r.Count <= 0 || r.Count > cfg.Capacity {
		return fmt.Errorf("count must be in [1,%d]", cfg.Capacity)
	}
	return nil
}

// WaitingGroup is the single canonical, mutable record of a request's live
// state from admission until it boards. Per SPEC_FULL's resolution of the
// three-container design note, the computed Pending view and each cabin's
// AssignedLedger hold *WaitingGroup references into the FloorQueue that
// owns the group, never a second copy of the count.
type WaitingGroup struct {
	Source      int
	Target      int
	Count       int
	SubmittedAt int64
	WaitElapsed float64

	// seq is a monotonic admission sequence number, used to order the
	// computed Pending view when several groups share a SubmittedAt tick.
	seq int64

	// assignedCabin is -1 while unassigned. It is the only piece of state
	// the dispatcher and AssignedLedger consult; the group itself never
	// moves between containers, only this tag does.
	assignedCabin int

	// boarded is set once a cabin has taken this group onboard (including
	// a cabin that was never the dispatcher-assigned one — spec section
	// 4.D step 2 boards any direction-compatible waiting group at a dwell,
	// not only ones this cabin was committed to). building.pending() skips
	// any group with it set.
	boarded bool
}

func newWaitingGroup(r Request, seq int64) *WaitingGroup {
	return &WaitingGroup{
		Source:        r.Source,
		Target:        r.Target,
		Count:         r.Count,
		SubmittedAt:   r.SubmittedAt,
		seq:           seq,
		assignedCabin: -1,
	}
}

func (g *WaitingGroup) direction() Direction {
	return directionOf(g.Source, g.Target)
}

func (g *WaitingGroup) isAssigned() bool {
	return g.assignedCabin >= 0
}
