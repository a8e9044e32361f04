package devs

import (
	"fmt"
	"sort"
	"sync"
)

// DynamicsInit is what a factory receives to create the dynamics of an
// atomic model.
type DynamicsInit struct {
	Model      *Atomic
	Attributes map[string]any
}

// A DynamicsFactory creates dynamics from behavior identifiers.
type DynamicsFactory interface {
	NewDynamics(behavior string, init DynamicsInit) (Dynamics, error)
}

// A DynamicsConstructor creates the dynamics of one behavior.
type DynamicsConstructor func(init DynamicsInit) (Dynamics, error)

// Registry is a DynamicsFactory backed by a table of constructors.
type Registry struct {
	lock  sync.RWMutex
	ctors map[string]DynamicsConstructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]DynamicsConstructor)}
}

// Register adds a behavior. Registering a name twice is an error.
func (r *Registry) Register(behavior string, ctor DynamicsConstructor) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if behavior == "" || ctor == nil {
		return fmt.Errorf("invalid registration of behavior %q", behavior)
	}

	if _, found := r.ctors[behavior]; found {
		return fmt.Errorf("behavior %q is already registered", behavior)
	}

	r.ctors[behavior] = ctor

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(behavior string, ctor DynamicsConstructor) {
	if err := r.Register(behavior, ctor); err != nil {
		panic(err)
	}
}

// NewDynamics creates the dynamics of a behavior.
func (r *Registry) NewDynamics(behavior string, init DynamicsInit) (Dynamics, error) {
	r.lock.RLock()
	ctor, found := r.ctors[behavior]
	r.lock.RUnlock()

	if !found {
		return nil, fmt.Errorf("behavior %q is not registered", behavior)
	}

	return ctor(init)
}

// Behaviors returns the registered behavior names, sorted.
func (r *Registry) Behaviors() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
