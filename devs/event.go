package devs

import (
	"github.com/sarchlab/devs/sim/timing"
)

// EventKind tags the variants of events handled by the kernel.
type EventKind int

// Event kinds.
const (
	InternalEventKind EventKind = iota
	ExternalEventKind
	ObservationEventKind
	InstantaneousEventKind
)

func (k EventKind) String() string {
	switch k {
	case InternalEventKind:
		return "internal"
	case ExternalEventKind:
		return "external"
	case ObservationEventKind:
		return "observation"
	case InstantaneousEventKind:
		return "instantaneous"
	default:
		return "unknown"
	}
}

// An Event is something that happens to a model at a point in time.
type Event interface {
	EventTime() timing.VTime
	EventKind() EventKind
}

// An InternalEvent is the scheduled deadline of an atomic model.
type InternalEvent struct {
	Time  timing.VTime
	Model string
}

// EventTime returns the time of the event.
func (e InternalEvent) EventTime() timing.VTime { return e.Time }

// EventKind returns InternalEventKind.
func (e InternalEvent) EventKind() EventKind { return InternalEventKind }

// An ExternalEvent carries a value from an output port to an input port. A
// Dynamics emits external events from Output by setting Port and Value only;
// the kernel stamps the time, the source and the target.
type ExternalEvent struct {
	Time   timing.VTime
	Port   string
	Value  any
	Source string
	Target string
}

// EventTime returns the time of the event.
func (e ExternalEvent) EventTime() timing.VTime { return e.Time }

// EventKind returns ExternalEventKind.
func (e ExternalEvent) EventKind() EventKind { return ExternalEventKind }

// NewOutput creates an event to be returned from Dynamics.Output.
func NewOutput(port string, value any) ExternalEvent {
	return ExternalEvent{Port: port, Value: value}
}

// An ObservationEvent asks a model for the value of one of its ports on
// behalf of a view.
type ObservationEvent struct {
	Time  timing.VTime
	Model string
	Port  string
	View  string
}

// EventTime returns the time of the event.
func (e ObservationEvent) EventTime() timing.VTime { return e.Time }

// EventKind returns ObservationEventKind.
func (e ObservationEvent) EventKind() EventKind { return ObservationEventKind }

// An InstantaneousEvent is a zero-duration request sent by a model to the
// models connected to one of its output ports. It is answered synchronously
// within the current bag.
type InstantaneousEvent struct {
	Time   timing.VTime
	Source string
	Target string
	Port   string
	Value  any
}

// EventTime returns the time of the event.
func (e InstantaneousEvent) EventTime() timing.VTime { return e.Time }

// EventKind returns InstantaneousEventKind.
func (e InstantaneousEvent) EventKind() EventKind { return InstantaneousEventKind }

// A Response is the answer of one model to an instantaneous request.
type Response struct {
	Model string
	Port  string
	Value any
}

// A Bag is the set of external events delivered to one model at one
// timestamp, in arrival order.
type Bag []ExternalEvent

// OnPort returns the events that arrived on the given port.
func (b Bag) OnPort(port string) []ExternalEvent {
	var list []ExternalEvent

	for _, e := range b {
		if e.Port == port {
			list = append(list, e)
		}
	}

	return list
}

// Has tells if at least one event arrived on the given port.
func (b Bag) Has(port string) bool {
	for _, e := range b {
		if e.Port == port {
			return true
		}
	}

	return false
}

// Values returns the values of all events, in arrival order.
func (b Bag) Values() []any {
	list := make([]any, len(b))
	for i, e := range b {
		list[i] = e.Value
	}

	return list
}
