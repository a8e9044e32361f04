package devs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/devs/sim/timing"
)

// Dynamics is the behavior of an atomic model. Only the three transitions
// may change the state of the model. Output and Observation must be free of
// side effects.
type Dynamics interface {
	// Init sets up the initial state and returns the time advance from t.
	Init(t timing.VTime) timing.VTime
	// Output returns the events emitted just before an internal
	// transition.
	Output(t timing.VTime) []ExternalEvent
	// TimeAdvance returns the time until the next internal transition.
	TimeAdvance() timing.VTime
	InternalTransition(t timing.VTime) error
	ExternalTransition(bag Bag, t timing.VTime) error
	// ConfluentTransition is called only for models whose confluence
	// policy is ConfluenceDelegate.
	ConfluentTransition(t timing.VTime, bag Bag) error
	// Observation returns the value of a port for a view.
	Observation(e ObservationEvent) any
	// Finish is called once when the model is destroyed.
	Finish()
}

// ErrConfluenceNotImplemented is returned by DynamicsBase when a model asks
// for delegated confluence without implementing ConfluentTransition.
var ErrConfluenceNotImplemented = errors.New("confluent transition not implemented")

// DynamicsBase provides passive defaults. A model that embeds it never
// schedules itself and ignores every input until the methods are
// overridden.
type DynamicsBase struct {
	ctx ModelContext
}

// Init returns an infinite time advance.
func (b *DynamicsBase) Init(_ timing.VTime) timing.VTime {
	return timing.Infinity
}

// Output emits nothing.
func (b *DynamicsBase) Output(_ timing.VTime) []ExternalEvent {
	return nil
}

// TimeAdvance returns Infinity.
func (b *DynamicsBase) TimeAdvance() timing.VTime {
	return timing.Infinity
}

// InternalTransition does nothing.
func (b *DynamicsBase) InternalTransition(_ timing.VTime) error {
	return nil
}

// ExternalTransition does nothing.
func (b *DynamicsBase) ExternalTransition(_ Bag, _ timing.VTime) error {
	return nil
}

// ConfluentTransition returns ErrConfluenceNotImplemented.
func (b *DynamicsBase) ConfluentTransition(_ timing.VTime, _ Bag) error {
	return ErrConfluenceNotImplemented
}

// Observation returns nil.
func (b *DynamicsBase) Observation(_ ObservationEvent) any {
	return nil
}

// Finish does nothing.
func (b *DynamicsBase) Finish() {}

// SetContext stores the kernel context.
func (b *DynamicsBase) SetContext(ctx ModelContext) {
	b.ctx = ctx
}

// Context returns the kernel context. It is nil before the model is loaded.
func (b *DynamicsBase) Context() ModelContext {
	return b.ctx
}

// ContextAware is implemented by dynamics that want access to the kernel.
type ContextAware interface {
	SetContext(ctx ModelContext)
}

// A Responder answers instantaneous requests arriving on its input ports.
type Responder interface {
	Respond(req InstantaneousEvent) any
}

// An Executive is a model that may change the model structure. Executives
// are processed after all the other models of a bag.
type Executive interface {
	Dynamics
	IsExecutive() bool
}

// ExecutiveBase is DynamicsBase for executives.
type ExecutiveBase struct {
	DynamicsBase
}

// IsExecutive returns true.
func (b *ExecutiveBase) IsExecutive() bool {
	return true
}

func isExecutive(d Dynamics) bool {
	e, ok := d.(Executive)
	return ok && e.IsExecutive()
}

// ConfluencePolicy selects how a model resolves an internal and an external
// event at the same time.
type ConfluencePolicy int

// Confluence policies.
const (
	// ConfluenceDefault uses the default policy of the coordinator.
	ConfluenceDefault ConfluencePolicy = iota
	// ConfluenceInternalFirst runs the internal transition then the
	// external one.
	ConfluenceInternalFirst
	// ConfluenceExternalFirst runs the external transition then the
	// internal one.
	ConfluenceExternalFirst
	// ConfluenceDelegate calls ConfluentTransition once.
	ConfluenceDelegate
)

func (p ConfluencePolicy) String() string {
	switch p {
	case ConfluenceDefault:
		return "default"
	case ConfluenceInternalFirst:
		return "internal-first"
	case ConfluenceExternalFirst:
		return "external-first"
	case ConfluenceDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

// ParseConfluencePolicy parses the name of a confluence policy.
func ParseConfluencePolicy(s string) (ConfluencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ConfluenceDefault, nil
	case "internal-first", "internal_first", "internal":
		return ConfluenceInternalFirst, nil
	case "external-first", "external_first", "external":
		return ConfluenceExternalFirst, nil
	case "delegate":
		return ConfluenceDelegate, nil
	default:
		return ConfluenceDefault, fmt.Errorf("unknown confluence policy %q", s)
	}
}
