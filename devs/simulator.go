package devs

import (
	"fmt"

	"github.com/sarchlab/devs/sim/timing"
)

// A Simulator drives the Dynamics of one atomic model. It keeps the time of
// the last transition and of the next scheduled internal transition, and it
// enforces the ordering of the calls it forwards.
type Simulator struct {
	model    *Atomic
	dynamics Dynamics
	path     string
	order    uint64
	policy   ConfluencePolicy

	last timing.VTime
	next timing.VTime

	entry    *tableEntry
	inputs   Bag
	imminent bool
	inBag    bool
	finished bool
	bound    bool
}

// NewSimulator creates a simulator for an atomic model whose dynamics is
// already set.
func NewSimulator(model *Atomic) *Simulator {
	return &Simulator{
		model:    model,
		dynamics: model.dynamics,
		path:     model.Path(),
		policy:   model.policy,
		last:     timing.Zero,
		next:     timing.Infinity,
	}
}

// Model returns the atomic model.
func (s *Simulator) Model() *Atomic {
	return s.model
}

// Dynamics returns the behavior being simulated.
func (s *Simulator) Dynamics() Dynamics {
	return s.dynamics
}

// Path returns the path of the model.
func (s *Simulator) Path() string {
	return s.path
}

// LastEventTime returns the time of the last transition.
func (s *Simulator) LastEventTime() timing.VTime {
	return s.last
}

// NextEventTime returns the time of the next internal transition.
func (s *Simulator) NextEventTime() timing.VTime {
	return s.next
}

// Elapsed returns the time spent in the current state at t.
func (s *Simulator) Elapsed(t timing.VTime) (timing.VTime, error) {
	if timing.Compare(t, s.last) < 0 {
		return 0, s.invariantError("elapsed time before last event", t, nil)
	}

	e, err := timing.Sub(t, s.last)
	if err != nil {
		return 0, s.invariantError("elapsed time", t, err)
	}

	return e, nil
}

// bind hands the kernel context to the dynamics. It has effect only once.
func (s *Simulator) bind(ctx ModelContext) {
	if s.bound {
		return
	}

	s.bound = true

	if aware, ok := s.dynamics.(ContextAware); ok {
		aware.SetContext(ctx)
	}
}

// ScheduleFirst initializes the dynamics at t0 and returns the time of the
// first internal transition.
func (s *Simulator) ScheduleFirst(t0 timing.VTime) (timing.VTime, error) {
	var ta timing.VTime

	err := s.call("init", t0, func() error {
		ta = s.dynamics.Init(t0)
		return nil
	})
	if err != nil {
		return timing.Infinity, err
	}

	if err := s.checkAdvance(ta, t0); err != nil {
		return timing.Infinity, err
	}

	s.last = t0
	s.next = timing.Add(t0, ta)

	return s.next, nil
}

// ComputeOutput collects the output of the model at its internal deadline.
// Every event must use an output port of the model.
func (s *Simulator) ComputeOutput(t timing.VTime) ([]ExternalEvent, error) {
	if timing.Compare(t, s.next) != 0 {
		return nil, s.invariantError("output outside internal deadline", t, nil)
	}

	var out []ExternalEvent

	err := s.call("output", t, func() error {
		out = s.dynamics.Output(t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range out {
		p, found := s.model.Port(out[i].Port)
		if !found || p.Direction() != OutputPort {
			return nil, newStructureError(s.path,
				"output on unknown output port %s", out[i].Port)
		}

		out[i].Time = t
		out[i].Source = s.path
	}

	return out, nil
}

// FireInternal runs the internal transition at the internal deadline.
func (s *Simulator) FireInternal(t timing.VTime) error {
	if timing.Compare(t, s.next) != 0 {
		return s.invariantError("internal transition outside deadline", t, nil)
	}

	err := s.call("internal transition", t, func() error {
		return s.dynamics.InternalTransition(t)
	})
	if err != nil {
		return err
	}

	return s.advance(t)
}

// FireExternal runs the external transition. t must not precede the last
// event and must come strictly before a finite internal deadline.
func (s *Simulator) FireExternal(bag Bag, t timing.VTime) error {
	if timing.Compare(t, s.last) < 0 {
		return s.invariantError("external event in the past", t, nil)
	}

	if timing.Compare(t, s.next) > 0 ||
		(!s.next.IsInfinity() && timing.Compare(t, s.next) == 0) {
		return s.invariantError("external event at or after internal deadline", t, nil)
	}

	err := s.call("external transition", t, func() error {
		return s.dynamics.ExternalTransition(bag, t)
	})
	if err != nil {
		return err
	}

	return s.advance(t)
}

// FireConfluent resolves an external bag that arrives at the internal
// deadline, according to the policy of the model.
func (s *Simulator) FireConfluent(bag Bag, t timing.VTime) error {
	if timing.Compare(t, s.next) != 0 {
		return s.invariantError("confluent transition outside deadline", t, nil)
	}

	internal := func() error {
		return s.call("internal transition", t, func() error {
			return s.dynamics.InternalTransition(t)
		})
	}

	external := func() error {
		return s.call("external transition", t, func() error {
			return s.dynamics.ExternalTransition(bag, t)
		})
	}

	var steps []func() error

	switch s.policy {
	case ConfluenceDelegate:
		steps = append(steps, func() error {
			return s.call("confluent transition", t, func() error {
				return s.dynamics.ConfluentTransition(t, bag)
			})
		})
	case ConfluenceExternalFirst:
		steps = append(steps, external, internal)
	default:
		steps = append(steps, internal, external)
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	return s.advance(t)
}

// Observe asks the dynamics for the value of a port.
func (s *Simulator) Observe(e ObservationEvent) (any, error) {
	var v any

	err := s.call("observation", e.Time, func() error {
		v = s.dynamics.Observation(e)
		return nil
	})

	return v, err
}

// Finish calls Dynamics.Finish. Later calls do nothing.
func (s *Simulator) Finish(t timing.VTime) error {
	if s.finished {
		return nil
	}

	s.finished = true

	return s.call("finish", t, func() error {
		s.dynamics.Finish()
		return nil
	})
}

func (s *Simulator) advance(t timing.VTime) error {
	var ta timing.VTime

	err := s.call("time advance", t, func() error {
		ta = s.dynamics.TimeAdvance()
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.checkAdvance(ta, t); err != nil {
		return err
	}

	s.last = t
	s.next = timing.Add(t, ta)

	return nil
}

func (s *Simulator) checkAdvance(ta, t timing.VTime) error {
	if !ta.IsValid() || timing.Compare(ta, timing.Zero) < 0 {
		return s.invariantError(fmt.Sprintf("invalid time advance %s", ta), t, nil)
	}

	return nil
}

// call runs user code, converting errors and panics to DynamicsError.
func (s *Simulator) call(op string, t timing.VTime, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}

			err = &DynamicsError{Model: s.path, Op: op, Time: t, Err: cause}
		}
	}()

	if e := f(); e != nil {
		return &DynamicsError{Model: s.path, Op: op, Time: t, Err: e}
	}

	return nil
}

func (s *Simulator) invariantError(reason string, t timing.VTime, err error) error {
	return &SchedulingInvariantError{
		Model:         s.path,
		Reason:        reason,
		Time:          t,
		LastEventTime: s.last,
		NextEventTime: s.next,
		Err:           err,
	}
}
