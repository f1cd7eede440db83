package sim

// EventKind enumerates the event stream named in spec section 4.F and
// section 9 ("event stream as the single observability channel").
type EventKind string

const (
	EventAdmitted        EventKind = "admitted"
	EventDropped         EventKind = "dropped"
	EventAssigned        EventKind = "assigned"
	EventPickedUp        EventKind = "picked_up"
	EventDroppedOff      EventKind = "dropped_off"
	EventTimedOut        EventKind = "timed_out"
	EventStrategyChanged EventKind = "strategy_changed"
	EventReset           EventKind = "reset"
)

// Event is a single observability record. External layers reconstruct
// statistics (wait times, throughput, drop reasons) from the stream alone,
// never by reading cabin or queue internals directly.
type Event struct {
	Kind    EventKind
	Cabin   int // cabin id, -1 when not applicable
	Source  int
	Target  int
	Count   int
	Reason  string // drop/eviction reason, empty otherwise
	AtTick  int64
}

// eventSink accumulates events raised during a single tick (or intake call)
// and is drained by Engine.Events.
type eventSink struct {
	events  []Event
	tick    int64
	onEvent func(Event) // optional hook, used by Engine to tally conservation counters inline
}

func newEventSink() *eventSink {
	return &eventSink{events: make([]Event, 0, 16)}
}

func (s *eventSink) emit(e Event) {
	e.AtTick = s.tick
	s.events = append(s.events, e)
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

// drain returns all accumulated events and clears the buffer. Engine.Events
// is the only caller; this keeps the event stream poll-since-last-call, per
// spec section 4.F.
func (s *eventSink) drain() []Event {
	out := s.events
	s.events = make([]Event, 0, 16)
	return out
}
