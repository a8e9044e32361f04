package devs

import "fmt"

// An Endpoint names a port on a model.
type Endpoint struct {
	Model Model
	Port  string
}

func (e Endpoint) String() string {
	if e.Model == nil {
		return ":" + e.Port
	}

	return e.Model.Path() + ":" + e.Port
}

// ConnectionKind classifies a connection relative to its owning coupled
// model.
type ConnectionKind int

// Connection kinds.
const (
	// InternalConnection links a child output to a child input.
	InternalConnection ConnectionKind = iota
	// InputBoundaryConnection links an input of the coupled model to a child
	// input.
	InputBoundaryConnection
	// OutputBoundaryConnection links a child output to an output of the
	// coupled model.
	OutputBoundaryConnection
	// PassThroughConnection links an input of the coupled model directly to
	// one of its outputs.
	PassThroughConnection
)

func (k ConnectionKind) String() string {
	switch k {
	case InternalConnection:
		return "internal"
	case InputBoundaryConnection:
		return "input-boundary"
	case OutputBoundaryConnection:
		return "output-boundary"
	case PassThroughConnection:
		return "pass-through"
	default:
		return "unknown"
	}
}

// A Connection is a directed edge between two ports, scoped to one coupled
// model.
type Connection struct {
	From Endpoint
	To   Endpoint
	Kind ConnectionKind
}

func (c Connection) String() string {
	return fmt.Sprintf("%s -> %s (%s)", c.From, c.To, c.Kind)
}

// ConnectInternal connects the output port of a child to the input port of a
// child. The two children may be the same model.
func (c *Coupled) ConnectInternal(
	src Model, srcPort string,
	dst Model, dstPort string,
) error {
	if src == Model(c) || dst == Model(c) {
		return newStructureError(c.Path(),
			"internal connections link children only")
	}

	return c.connect(Endpoint{src, srcPort}, Endpoint{dst, dstPort})
}

// ConnectBoundary connects a port of c to a port of a child, a port of a
// child to a port of c, or an input of c to an output of c.
func (c *Coupled) ConnectBoundary(from, to Endpoint) error {
	if from.Model != Model(c) && to.Model != Model(c) {
		return newStructureError(c.Path(),
			"boundary connections must involve the coupled model itself")
	}

	return c.connect(from, to)
}

// ConnectInput connects an input port of c to an input port of a child.
func (c *Coupled) ConnectInput(port string, dst Model, dstPort string) error {
	return c.ConnectBoundary(Endpoint{c, port}, Endpoint{dst, dstPort})
}

// ConnectOutput connects an output port of a child to an output port of c.
func (c *Coupled) ConnectOutput(src Model, srcPort string, port string) error {
	return c.ConnectBoundary(Endpoint{src, srcPort}, Endpoint{c, port})
}

// Connect connects two ports by model name. The empty name denotes c
// itself.
func (c *Coupled) Connect(src, srcPort, dst, dstPort string) error {
	from, err := c.endpointModel(src)
	if err != nil {
		return err
	}

	to, err := c.endpointModel(dst)
	if err != nil {
		return err
	}

	return c.connect(Endpoint{from, srcPort}, Endpoint{to, dstPort})
}

// MustConnect is like Connect but panics on error.
func (c *Coupled) MustConnect(src, srcPort, dst, dstPort string) *Coupled {
	if err := c.Connect(src, srcPort, dst, dstPort); err != nil {
		panic(err)
	}

	return c
}

// Disconnect removes a connection given by model names. The empty name
// denotes c itself.
func (c *Coupled) Disconnect(src, srcPort, dst, dstPort string) error {
	from, err := c.endpointModel(src)
	if err != nil {
		return err
	}

	to, err := c.endpointModel(dst)
	if err != nil {
		return err
	}

	for i, conn := range c.connections {
		if conn.From == (Endpoint{from, srcPort}) &&
			conn.To == (Endpoint{to, dstPort}) {
			c.connections = append(c.connections[:i], c.connections[i+1:]...)
			return nil
		}
	}

	return newStructureError(c.Path(), "no connection %s -> %s",
		Endpoint{from, srcPort}, Endpoint{to, dstPort})
}

func (c *Coupled) connect(from, to Endpoint) error {
	kind, err := c.classify(from, to)
	if err != nil {
		return err
	}

	conn := Connection{From: from, To: to, Kind: kind}

	if err := c.checkConnection(conn); err != nil {
		return err
	}

	for _, existing := range c.connections {
		if existing.From == from && existing.To == to {
			return newStructureError(c.Path(),
				"duplicate connection %s", conn)
		}
	}

	c.connections = append(c.connections, conn)

	return nil
}

func (c *Coupled) classify(from, to Endpoint) (ConnectionKind, error) {
	for _, e := range []Endpoint{from, to} {
		if e.Model == nil {
			return 0, newStructureError(c.Path(), "nil endpoint model")
		}

		if e.Model != Model(c) && e.Model.Parent() != c {
			return 0, newStructureError(c.Path(),
				"%s is out of scope", e.Model.Path())
		}
	}

	switch {
	case from.Model == Model(c) && to.Model == Model(c):
		return PassThroughConnection, nil
	case from.Model == Model(c):
		return InputBoundaryConnection, nil
	case to.Model == Model(c):
		return OutputBoundaryConnection, nil
	default:
		return InternalConnection, nil
	}
}

// checkConnection verifies that both ports exist and have the directions the
// connection kind requires.
func (c *Coupled) checkConnection(conn Connection) error {
	var fromDir, toDir PortDirection

	switch conn.Kind {
	case InternalConnection:
		fromDir, toDir = OutputPort, InputPort
	case InputBoundaryConnection:
		fromDir, toDir = InputPort, InputPort
	case OutputBoundaryConnection:
		fromDir, toDir = OutputPort, OutputPort
	case PassThroughConnection:
		fromDir, toDir = InputPort, OutputPort
	}

	if err := c.checkEndpoint(conn.From, fromDir); err != nil {
		return err
	}

	return c.checkEndpoint(conn.To, toDir)
}

func (c *Coupled) checkEndpoint(e Endpoint, dir PortDirection) error {
	p, found := e.Model.Port(e.Port)
	if !found {
		return newStructureError(c.Path(), "unknown port %s", e)
	}

	if p.Direction() != dir {
		return newStructureError(c.Path(),
			"port %s is an %s port, expected %s", e, p.Direction(), dir)
	}

	return nil
}

func (c *Coupled) dropConnectionsOn(m Model, port string) {
	kept := c.connections[:0]
	for _, conn := range c.connections {
		if conn.From == (Endpoint{m, port}) || conn.To == (Endpoint{m, port}) {
			continue
		}

		kept = append(kept, conn)
	}

	c.connections = kept
}
