package devs

import (
	"github.com/sarchlab/devs/sim/naming"
)

// A Model is a node of the model tree. It is either an *Atomic or a
// *Coupled.
type Model interface {
	naming.Named

	// Path returns the dotted path of the model from the root.
	Path() string
	// Parent returns the coupled model that owns this model, or nil for the
	// root.
	Parent() *Coupled

	Port(name string) (*Port, bool)
	Ports() []*Port
	InputPorts() []*Port
	OutputPorts() []*Port
	AddInputPort(name string) (*Port, error)
	AddOutputPort(name string) (*Port, error)
	RemovePort(name string) error

	base() *modelBase
}

type modelBase struct {
	name   string
	parent *Coupled
	ports  portSet
	self   Model
}

func (m *modelBase) base() *modelBase {
	return m
}

// Name returns the name of the model.
func (m *modelBase) Name() string {
	return m.name
}

// Path returns the dotted path of the model from the root.
func (m *modelBase) Path() string {
	if m.parent == nil {
		return m.name
	}

	return naming.BuildName(m.parent.Path(), m.name)
}

// Parent returns the owning coupled model.
func (m *modelBase) Parent() *Coupled {
	return m.parent
}

// Port returns the port with the given name.
func (m *modelBase) Port(name string) (*Port, bool) {
	return m.ports.get(name)
}

// Ports returns all the ports, in the order they were added.
func (m *modelBase) Ports() []*Port {
	return m.ports.all()
}

// InputPorts returns the input ports, in the order they were added.
func (m *modelBase) InputPorts() []*Port {
	return m.ports.list(InputPort)
}

// OutputPorts returns the output ports, in the order they were added.
func (m *modelBase) OutputPorts() []*Port {
	return m.ports.list(OutputPort)
}

// AddInputPort adds an input port.
func (m *modelBase) AddInputPort(name string) (*Port, error) {
	return m.ports.add(m.self, name, InputPort)
}

// AddOutputPort adds an output port.
func (m *modelBase) AddOutputPort(name string) (*Port, error) {
	return m.ports.add(m.self, name, OutputPort)
}

// RemovePort removes a port together with every connection that uses it.
func (m *modelBase) RemovePort(name string) error {
	if !m.ports.remove(name) {
		return newStructureError(m.Path(), "port %s does not exist", name)
	}

	if m.parent != nil {
		m.parent.dropConnectionsOn(m.self, name)
	}

	if c, ok := m.self.(*Coupled); ok {
		c.dropConnectionsOn(c, name)
	}

	return nil
}

func (m *modelBase) mustAddPorts(dir PortDirection, names []string) {
	for _, n := range names {
		if _, err := m.ports.add(m.self, n, dir); err != nil {
			panic(err)
		}
	}
}

// An Observable binds one port of an atomic model to a view.
type Observable struct {
	Port string
	View string
}

// Atomic is a leaf model. Its behavior is either a Dynamics given at
// construction or a behavior identifier resolved by a DynamicsFactory at
// load time.
type Atomic struct {
	modelBase

	dynamics    Dynamics
	behavior    string
	attributes  map[string]any
	policy      ConfluencePolicy
	observables []Observable
}

// NewAtomic creates an atomic model. The name is validated when the model is
// added to a coupled model or loaded.
func NewAtomic(name string) *Atomic {
	a := &Atomic{}
	a.name = name
	a.self = a

	return a
}

// WithDynamics sets the behavior of the model.
func (a *Atomic) WithDynamics(d Dynamics) *Atomic {
	a.dynamics = d
	return a
}

// WithBehavior sets a behavior identifier and its attributes. The Dynamics
// is created by the coordinator's factory at load time.
func (a *Atomic) WithBehavior(behavior string, attrs map[string]any) *Atomic {
	a.behavior = behavior
	a.attributes = attrs

	return a
}

// WithConfluencePolicy sets how the model resolves simultaneous internal and
// external events.
func (a *Atomic) WithConfluencePolicy(p ConfluencePolicy) *Atomic {
	a.policy = p
	return a
}

// WithInputs adds input ports. It panics if a name is invalid or taken.
func (a *Atomic) WithInputs(names ...string) *Atomic {
	a.mustAddPorts(InputPort, names)
	return a
}

// WithOutputs adds output ports. It panics if a name is invalid or taken.
func (a *Atomic) WithOutputs(names ...string) *Atomic {
	a.mustAddPorts(OutputPort, names)
	return a
}

// Observe attaches a port of the model to a view. The view must be
// registered on the coordinator before the model is loaded.
func (a *Atomic) Observe(port, view string) *Atomic {
	for _, o := range a.observables {
		if o.Port == port && o.View == view {
			return a
		}
	}

	a.observables = append(a.observables, Observable{Port: port, View: view})

	return a
}

// Dynamics returns the behavior of the model. It is nil until loaded when a
// behavior identifier is used.
func (a *Atomic) Dynamics() Dynamics {
	return a.dynamics
}

// Behavior returns the behavior identifier and its attributes.
func (a *Atomic) Behavior() (string, map[string]any) {
	return a.behavior, a.attributes
}

// ConfluencePolicy returns the confluence policy set on the model.
func (a *Atomic) ConfluencePolicy() ConfluencePolicy {
	return a.policy
}

// Observables returns the port-view bindings of the model.
func (a *Atomic) Observables() []Observable {
	list := make([]Observable, len(a.observables))
	copy(list, a.observables)

	return list
}

func (a *Atomic) unobservePort(port string) {
	kept := a.observables[:0]
	for _, o := range a.observables {
		if o.Port != port {
			kept = append(kept, o)
		}
	}

	a.observables = kept
}

// Coupled is a composite model. It owns its children and the connections
// between them.
type Coupled struct {
	modelBase

	children    []Model
	childIndex  map[string]Model
	connections []Connection
}

// NewCoupled creates an empty coupled model.
func NewCoupled(name string) *Coupled {
	c := &Coupled{childIndex: make(map[string]Model)}
	c.name = name
	c.self = c

	return c
}

// WithInputs adds input ports. It panics if a name is invalid or taken.
func (c *Coupled) WithInputs(names ...string) *Coupled {
	c.mustAddPorts(InputPort, names)
	return c
}

// WithOutputs adds output ports. It panics if a name is invalid or taken.
func (c *Coupled) WithOutputs(names ...string) *Coupled {
	c.mustAddPorts(OutputPort, names)
	return c
}

// WithChildren adds children. It panics on the first child that cannot be
// added.
func (c *Coupled) WithChildren(children ...Model) *Coupled {
	for _, child := range children {
		if err := c.AddChild(child); err != nil {
			panic(err)
		}
	}

	return c
}

// AddChild adds a model as a child. The child must not already have a
// parent, its name must be unique among the children and it must not be an
// ancestor of c.
func (c *Coupled) AddChild(child Model) error {
	if child == nil {
		return newStructureError(c.Path(), "nil child")
	}

	if err := naming.ValidateElement(child.Name()); err != nil {
		return &StructureError{
			Model:  c.Path(),
			Reason: "invalid child name",
			Err:    err,
		}
	}

	if child.Parent() != nil {
		return newStructureError(c.Path(),
			"%s already belongs to %s", child.Name(), child.Parent().Path())
	}

	for m := Model(c); m != nil; m = parentOf(m) {
		if m == child {
			return newStructureError(c.Path(),
				"adding %s would create a cycle", child.Name())
		}
	}

	if _, found := c.childIndex[child.Name()]; found {
		return newStructureError(c.Path(),
			"child %s already exists", child.Name())
	}

	child.base().parent = c
	c.children = append(c.children, child)
	c.childIndex[child.Name()] = child

	return nil
}

func parentOf(m Model) Model {
	p := m.Parent()
	if p == nil {
		return nil
	}

	return p
}

// RemoveChild detaches a child and drops every connection that touches it.
func (c *Coupled) RemoveChild(name string) (Model, error) {
	child, found := c.childIndex[name]
	if !found {
		return nil, newStructureError(c.Path(), "child %s does not exist", name)
	}

	delete(c.childIndex, name)

	for i, m := range c.children {
		if m == child {
			c.children = append(c.children[:i], c.children[i+1:]...)
			break
		}
	}

	kept := c.connections[:0]
	for _, conn := range c.connections {
		if conn.From.Model != child && conn.To.Model != child {
			kept = append(kept, conn)
		}
	}

	c.connections = kept
	child.base().parent = nil

	return child, nil
}

// Child returns the direct child with the given name.
func (c *Coupled) Child(name string) (Model, bool) {
	m, found := c.childIndex[name]
	return m, found
}

// Children returns the direct children in insertion order.
func (c *Coupled) Children() []Model {
	list := make([]Model, len(c.children))
	copy(list, c.children)

	return list
}

// Connections returns the connections in insertion order.
func (c *Coupled) Connections() []Connection {
	list := make([]Connection, len(c.connections))
	copy(list, c.connections)

	return list
}

// FindByPath finds a descendant by a path relative to c, for example
// "Sub.Gen". An empty path returns c itself.
func (c *Coupled) FindByPath(path string) (Model, bool) {
	if path == "" {
		return c, true
	}

	var m Model = c

	for _, elem := range naming.Split(path) {
		cm, ok := m.(*Coupled)
		if !ok {
			return nil, false
		}

		child, found := cm.childIndex[elem]
		if !found {
			return nil, false
		}

		m = child
	}

	return m, true
}

// endpointModel resolves a name relative to c. The empty name denotes c.
func (c *Coupled) endpointModel(name string) (Model, error) {
	if name == "" {
		return c, nil
	}

	child, found := c.childIndex[name]
	if !found {
		return nil, newStructureError(c.Path(), "child %s does not exist", name)
	}

	return child, nil
}

// Validate checks a whole model tree. It verifies element names, port
// presence of every connection endpoint and that every atomic model has a
// behavior.
func Validate(root Model) error {
	if root == nil {
		return newStructureError("", "nil root model")
	}

	if err := naming.ValidateElement(root.Name()); err != nil {
		return &StructureError{
			Model:  root.Name(),
			Reason: "invalid model name",
			Err:    err,
		}
	}

	return walk(root, func(m Model) error {
		switch m := m.(type) {
		case *Atomic:
			if m.dynamics == nil && m.behavior == "" {
				return newStructureError(m.Path(), "atomic model has no dynamics")
			}
		case *Coupled:
			for _, conn := range m.connections {
				if err := m.checkConnection(conn); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// walk visits the tree depth-first, parents before children, children in
// insertion order.
func walk(m Model, visit func(Model) error) error {
	if err := visit(m); err != nil {
		return err
	}

	c, ok := m.(*Coupled)
	if !ok {
		return nil
	}

	for _, child := range c.children {
		if err := walk(child, visit); err != nil {
			return err
		}
	}

	return nil
}

func atomicsOf(m Model) []*Atomic {
	var list []*Atomic

	_ = walk(m, func(m Model) error {
		if a, ok := m.(*Atomic); ok {
			list = append(list, a)
		}

		return nil
	})

	return list
}
