package devs

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sarchlab/devs/sim/timing"
)

// ViewKind decides when a view samples its observables.
type ViewKind int

// View kinds.
const (
	// TimedView samples at the beginning of the run and then periodically.
	TimedView ViewKind = iota
	// EventView samples a model after each of its transitions.
	EventView
	// FinishView samples once, when the run is finished.
	FinishView
)

func (k ViewKind) String() string {
	switch k {
	case TimedView:
		return "timed"
	case EventView:
		return "event"
	case FinishView:
		return "finish"
	default:
		return "unknown"
	}
}

// ParseViewKind parses the name of a view kind.
func ParseViewKind(s string) (ViewKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timed":
		return TimedView, nil
	case "event":
		return EventView, nil
	case "finish":
		return FinishView, nil
	default:
		return TimedView, fmt.Errorf("unknown view kind %q", s)
	}
}

// An Observation is one value sampled by a view.
type Observation struct {
	Time  timing.VTime
	Model string
	Port  string
	View  string
	Value any
}

// A StreamWriter receives the observations of one view. Observations arrive
// in non-decreasing time order and Close is called exactly once.
type StreamWriter interface {
	Write(o Observation) error
	Close(t timing.VTime) error
}

// ViewSpec describes a view to register on a coordinator.
type ViewSpec struct {
	Name   string
	Kind   ViewKind
	Step   timing.VTime
	Stream StreamWriter
}

type viewObservable struct {
	sim  *Simulator
	port string
}

// A View samples ports of atomic models and forwards the values to a stream.
type View struct {
	spec        ViewSpec
	order       int
	observables []viewObservable
	entry       *tableEntry
	closed      bool
}

func newView(spec ViewSpec, order int) (*View, error) {
	if spec.Name == "" {
		return nil, newStructureError("", "view without a name")
	}

	if spec.Stream == nil {
		return nil, newStructureError("", "view %s has no stream", spec.Name)
	}

	if spec.Kind == TimedView &&
		(!spec.Step.IsValid() || spec.Step.IsInfinity() ||
			timing.Compare(spec.Step, timing.Zero) <= 0) {
		return nil, newStructureError("",
			"timed view %s needs a positive finite step, got %s",
			spec.Name, spec.Step)
	}

	return &View{spec: spec, order: order}, nil
}

// Name returns the name of the view.
func (v *View) Name() string {
	return v.spec.Name
}

// Kind returns the kind of the view.
func (v *View) Kind() ViewKind {
	return v.spec.Kind
}

// Step returns the sampling period of a timed view.
func (v *View) Step() timing.VTime {
	return v.spec.Step
}

// Stream returns the stream of the view.
func (v *View) Stream() StreamWriter {
	return v.spec.Stream
}

// Observables returns the observed ports as "path:port" strings.
func (v *View) Observables() []string {
	list := make([]string, 0, len(v.observables))
	for _, o := range v.observables {
		list = append(list, o.sim.path+":"+o.port)
	}

	return list
}

func (v *View) addObservable(sim *Simulator, port string) error {
	if _, found := sim.model.Port(port); !found {
		return newStructureError(sim.path,
			"cannot observe unknown port %s in view %s", port, v.spec.Name)
	}

	for _, o := range v.observables {
		if o.sim == sim && o.port == port {
			return nil
		}
	}

	v.observables = append(v.observables, viewObservable{sim: sim, port: port})

	return nil
}

func (v *View) removeSimulator(sim *Simulator) {
	kept := v.observables[:0]
	for _, o := range v.observables {
		if o.sim != sim {
			kept = append(kept, o)
		}
	}

	v.observables = kept
}

func (v *View) removePort(sim *Simulator, port string) {
	kept := v.observables[:0]
	for _, o := range v.observables {
		if o.sim != sim || o.port != port {
			kept = append(kept, o)
		}
	}

	v.observables = kept
}

func (v *View) observes(sim *Simulator) bool {
	for _, o := range v.observables {
		if o.sim == sim {
			return true
		}
	}

	return false
}

// sample observes the ports at t, or only the ports of one simulator when
// sim is not nil. Stream failures are handed to report. A failing
// observation aborts the sampling.
func (v *View) sample(
	t timing.VTime,
	sim *Simulator,
	report func(*StreamError),
) error {
	for _, o := range v.observables {
		if sim != nil && o.sim != sim {
			continue
		}

		ev := ObservationEvent{
			Time:  t,
			Model: o.sim.path,
			Port:  o.port,
			View:  v.spec.Name,
		}

		value, err := o.sim.Observe(ev)
		if err != nil {
			return err
		}

		obs := Observation{
			Time:  t,
			Model: o.sim.path,
			Port:  o.port,
			View:  v.spec.Name,
			Value: value,
		}

		if err := v.spec.Stream.Write(obs); err != nil {
			report(&StreamError{
				View:  v.spec.Name,
				Model: o.sim.path,
				Port:  o.port,
				Time:  t,
				Err:   err,
			})
		}
	}

	return nil
}

func (v *View) close(t timing.VTime) *StreamError {
	if v.closed {
		return nil
	}

	v.closed = true

	if err := v.spec.Stream.Close(t); err != nil {
		return &StreamError{View: v.spec.Name, Time: t, Err: err}
	}

	return nil
}

func sameStream(a, b StreamWriter) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}

	return a == b
}
