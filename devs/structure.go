package devs

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/sim/naming"
)

// A StructuralChange is a request to change the model tree of a loaded
// coordinator. Requests made during a bag are applied when the bag ends.
type StructuralChange interface {
	fmt.Stringer

	apply(c *Coordinator) error
}

// AddModel adds a model, and all its descendants, under a coupled model.
type AddModel struct {
	Parent string
	Model  Model
}

func (r AddModel) String() string {
	if r.Model == nil {
		return "add nil model to " + r.Parent
	}

	return fmt.Sprintf("add model %s to %s", r.Model.Name(), r.Parent)
}

func (r AddModel) apply(c *Coordinator) error {
	parent, err := c.findCoupled(r.Parent)
	if err != nil {
		return err
	}

	if r.Model == nil {
		return newStructureError(r.Parent, "cannot add a nil model")
	}

	if err := Validate(r.Model); err != nil {
		return err
	}

	if err := parent.AddChild(r.Model); err != nil {
		return err
	}

	sims, err := c.instantiate(r.Model, c.readNow())
	if err != nil {
		c.rollbackAdd(parent, r.Model)
		return err
	}

	return c.sampleEventViews(c.readNow(), sims)
}

// rollbackAdd detaches a partially instantiated subtree. Its simulators are
// dropped without finishing.
func (c *Coordinator) rollbackAdd(parent *Coupled, m Model) {
	for _, a := range atomicsOf(m) {
		if sim, found := c.simIndex[a]; found {
			c.detach(sim)
		}

		if c.fromFactory[a] {
			a.dynamics = nil
			delete(c.fromFactory, a)
		}
	}

	_, _ = parent.RemoveChild(m.Name())
}

// RemoveModel removes a model and all its descendants. Their dynamics are
// finished and their pending events are dropped.
type RemoveModel struct {
	Path string
}

func (r RemoveModel) String() string {
	return "remove model " + r.Path
}

func (r RemoveModel) apply(c *Coordinator) error {
	m, err := c.findModel(r.Path)
	if err != nil {
		return err
	}

	if m == c.root {
		return newStructureError(r.Path, "cannot remove the root model")
	}

	c.table.dropInjections(func(target Model) bool {
		return isWithin(target, m)
	})

	var errs []error

	for _, a := range atomicsOf(m) {
		errs = append(errs, c.destroy(c.simIndex[a]))
	}

	_, err = m.Parent().RemoveChild(m.Name())
	errs = append(errs, err)

	return errors.Join(errs...)
}

// AddConnection connects two ports inside a coupled model. Models are named
// relative to the coupled model; the empty name denotes the coupled model.
type AddConnection struct {
	Parent   string
	From     string
	FromPort string
	To       string
	ToPort   string
}

func (r AddConnection) String() string {
	return fmt.Sprintf("connect %s:%s to %s:%s in %s",
		r.From, r.FromPort, r.To, r.ToPort, r.Parent)
}

func (r AddConnection) apply(c *Coordinator) error {
	parent, err := c.findCoupled(r.Parent)
	if err != nil {
		return err
	}

	return parent.Connect(r.From, r.FromPort, r.To, r.ToPort)
}

// RemoveConnection removes a connection inside a coupled model.
type RemoveConnection struct {
	Parent   string
	From     string
	FromPort string
	To       string
	ToPort   string
}

func (r RemoveConnection) String() string {
	return fmt.Sprintf("disconnect %s:%s from %s:%s in %s",
		r.From, r.FromPort, r.To, r.ToPort, r.Parent)
}

func (r RemoveConnection) apply(c *Coordinator) error {
	parent, err := c.findCoupled(r.Parent)
	if err != nil {
		return err
	}

	return parent.Disconnect(r.From, r.FromPort, r.To, r.ToPort)
}

// AddPort adds a port to a model.
type AddPort struct {
	Model     string
	Port      string
	Direction PortDirection
}

func (r AddPort) String() string {
	return fmt.Sprintf("add %s port %s to %s", r.Direction, r.Port, r.Model)
}

func (r AddPort) apply(c *Coordinator) error {
	m, err := c.findModel(r.Model)
	if err != nil {
		return err
	}

	if r.Direction == InputPort {
		_, err = m.AddInputPort(r.Port)
	} else {
		_, err = m.AddOutputPort(r.Port)
	}

	return err
}

// RemovePort removes a port, the connections that use it and the view
// bindings on it.
type RemovePort struct {
	Model string
	Port  string
}

func (r RemovePort) String() string {
	return fmt.Sprintf("remove port %s from %s", r.Port, r.Model)
}

func (r RemovePort) apply(c *Coordinator) error {
	m, err := c.findModel(r.Model)
	if err != nil {
		return err
	}

	if err := m.RemovePort(r.Port); err != nil {
		return err
	}

	if a, ok := m.(*Atomic); ok {
		a.unobservePort(r.Port)

		if sim, found := c.simIndex[a]; found {
			for _, v := range c.views {
				v.removePort(sim, r.Port)
			}
		}
	}

	return nil
}

// ObservePort attaches a port of an atomic model to a view.
type ObservePort struct {
	Model string
	Port  string
	View  string
}

func (r ObservePort) String() string {
	return fmt.Sprintf("observe %s:%s in view %s", r.Model, r.Port, r.View)
}

func (r ObservePort) apply(c *Coordinator) error {
	m, err := c.findModel(r.Model)
	if err != nil {
		return err
	}

	a, ok := m.(*Atomic)
	if !ok {
		return newStructureError(r.Model, "only atomic models can be observed")
	}

	return c.observe(c.simIndex[a], r.Port, r.View)
}

// RequestChange changes the structure of the loaded model tree. During a bag
// the change is queued and applied when the bag ends; otherwise it is
// applied immediately.
func (c *Coordinator) RequestChange(change StructuralChange) error {
	if c.state != StateInitialized && c.state != StateRunning {
		return &StateError{Op: "change the structure of", State: c.state}
	}

	if c.inBag {
		c.pending = append(c.pending, change)
		return nil
	}

	return c.applyChange(change)
}

func (c *Coordinator) applyPending() error {
	for len(c.pending) > 0 {
		change := c.pending[0]
		c.pending = c.pending[1:]

		if err := c.applyChange(change); err != nil {
			return err
		}
	}

	return nil
}

func (c *Coordinator) applyChange(change StructuralChange) error {
	err := change.apply(c)

	c.routes = make(map[*Simulator]map[string][]delivery)

	if err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"time":   c.readNow(),
		"change": change.String(),
	}).Debug("structure changed")

	return nil
}

func (c *Coordinator) destroy(sim *Simulator) error {
	if sim == nil {
		return nil
	}

	c.detach(sim)

	err := sim.Finish(c.readNow())

	if c.fromFactory[sim.model] {
		sim.model.dynamics = nil
		delete(c.fromFactory, sim.model)
	}

	return err
}

// detach removes a simulator from the table, the views, the routes and the
// arena.
func (c *Coordinator) detach(sim *Simulator) {
	c.table.Unschedule(sim)

	for _, v := range c.views {
		v.removeSimulator(sim)
	}

	delete(c.routes, sim)
	delete(c.simIndex, sim.model)

	for i, s := range c.simulators {
		if s == sim {
			c.simulators = append(c.simulators[:i], c.simulators[i+1:]...)
			break
		}
	}
}

func (c *Coordinator) findModel(path string) (Model, error) {
	if c.root == nil {
		return nil, newStructureError(path, "no model is loaded")
	}

	rootPath := c.root.Path()
	if path == rootPath {
		return c.root, nil
	}

	prefix := rootPath + naming.Separator
	if len(path) > len(prefix) && path[:len(prefix)] == prefix {
		if root, ok := c.root.(*Coupled); ok {
			if m, found := root.FindByPath(path[len(prefix):]); found {
				return m, nil
			}
		}
	}

	return nil, newStructureError(path, "model not found")
}

func (c *Coordinator) findCoupled(path string) (*Coupled, error) {
	m, err := c.findModel(path)
	if err != nil {
		return nil, err
	}

	coupled, ok := m.(*Coupled)
	if !ok {
		return nil, newStructureError(path, "model is not coupled")
	}

	return coupled, nil
}

func isWithin(m, ancestor Model) bool {
	for cur := m; cur != nil; cur = parentOf(cur) {
		if cur == ancestor {
			return true
		}
	}

	return false
}

// A StructureEditor requests structural changes on behalf of a model. Names
// are relative to the coupled model that owns the model; the empty name
// denotes that coupled model.
type StructureEditor struct {
	coord  *Coordinator
	parent string
	err    error
}

// Parent returns the path of the coupled model being edited.
func (e *StructureEditor) Parent() string {
	return e.parent
}

func (e *StructureEditor) request(change StructuralChange) error {
	if e.err != nil {
		return e.err
	}

	return e.coord.RequestChange(change)
}

func (e *StructureEditor) path(name string) string {
	if name == "" {
		return e.parent
	}

	return naming.BuildName(e.parent, name)
}

// AddModel adds a model to the coupled model.
func (e *StructureEditor) AddModel(m Model) error {
	return e.request(AddModel{Parent: e.parent, Model: m})
}

// RemoveModel removes a child of the coupled model.
func (e *StructureEditor) RemoveModel(name string) error {
	return e.request(RemoveModel{Path: e.path(name)})
}

// AddConnection connects two ports in the coupled model.
func (e *StructureEditor) AddConnection(src, srcPort, dst, dstPort string) error {
	return e.request(AddConnection{
		Parent: e.parent, From: src, FromPort: srcPort, To: dst, ToPort: dstPort,
	})
}

// RemoveConnection removes a connection of the coupled model.
func (e *StructureEditor) RemoveConnection(src, srcPort, dst, dstPort string) error {
	return e.request(RemoveConnection{
		Parent: e.parent, From: src, FromPort: srcPort, To: dst, ToPort: dstPort,
	})
}

// AddInputPort adds an input port to a child or to the coupled model.
func (e *StructureEditor) AddInputPort(model, port string) error {
	return e.request(AddPort{
		Model: e.path(model), Port: port, Direction: InputPort,
	})
}

// AddOutputPort adds an output port to a child or to the coupled model.
func (e *StructureEditor) AddOutputPort(model, port string) error {
	return e.request(AddPort{
		Model: e.path(model), Port: port, Direction: OutputPort,
	})
}

// RemovePort removes a port of a child or of the coupled model.
func (e *StructureEditor) RemovePort(model, port string) error {
	return e.request(RemovePort{Model: e.path(model), Port: port})
}

// Observe attaches a port of a child to a view.
func (e *StructureEditor) Observe(model, port, view string) error {
	return e.request(ObservePort{
		Model: e.path(model), Port: port, View: view,
	})
}
