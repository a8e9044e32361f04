package devs

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/sim/timing"
)

// A ModelContext gives a Dynamics access to the kernel that runs it.
type ModelContext interface {
	// Model returns the atomic model that owns the dynamics.
	Model() *Atomic
	// Path returns the path of the model.
	Path() string
	// Logger returns a logger carrying the model path.
	Logger() logrus.FieldLogger
	// Now returns the current simulation time.
	Now() timing.VTime
	// LastEventTime returns the time of the last transition of the model.
	LastEventTime() timing.VTime
	// Request sends an instantaneous request on an output port and returns
	// the answers of every connected responder. It may only be called from
	// a transition.
	Request(port string, value any) ([]Response, error)
	// Structure returns an editor for the coupled model that owns the
	// model. Changes are applied at the end of the current bag. The editor of
	// a root model refuses every change.
	Structure() *StructureEditor
}

type simContext struct {
	sim   *Simulator
	coord *Coordinator
}

var _ ModelContext = (*simContext)(nil)

func (c *simContext) Model() *Atomic {
	return c.sim.model
}

func (c *simContext) Path() string {
	return c.sim.path
}

func (c *simContext) Logger() logrus.FieldLogger {
	return c.coord.logger.WithField("model", c.sim.path)
}

func (c *simContext) Now() timing.VTime {
	return c.coord.Now()
}

func (c *simContext) LastEventTime() timing.VTime {
	return c.sim.last
}

func (c *simContext) Request(port string, value any) ([]Response, error) {
	return c.coord.request(c.sim, port, value)
}

func (c *simContext) Structure() *StructureEditor {
	p := c.sim.model.Parent()
	if p == nil {
		err := newStructureError(c.sim.path,
			"a root model has no enclosing coupled model")

		return &StructureEditor{coord: c.coord, err: err}
	}

	return &StructureEditor{coord: c.coord, parent: p.Path()}
}
