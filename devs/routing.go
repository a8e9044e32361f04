package devs

// A route is the final destination of an event after it has travelled
// through the connections of the model tree.
type route struct {
	model *Atomic
	port  string
}

type routeKey struct {
	model Model
	port  string
	dir   PortDirection
}

// router resolves ports to atomic destinations. The stack holds the ports on
// the path currently being resolved, so that a loop made only of coupled
// ports is reported instead of recursing forever.
type router struct {
	stack map[routeKey]bool
}

func newRouter() *router {
	return &router{stack: make(map[routeKey]bool)}
}

// resolveOutput returns the atomic input ports reached from an output port.
// Unconnected outputs resolve to no destination.
func resolveOutput(m Model, port string) ([]route, error) {
	return newRouter().output(m, port)
}

// resolveInput returns the atomic input ports reached from an input port. An
// atomic input port resolves to itself.
func resolveInput(m Model, port string) ([]route, error) {
	return newRouter().input(m, port)
}

func (r *router) enter(k routeKey) error {
	if r.stack[k] {
		return newStructureError(k.model.Path(),
			"port %s is part of a loop without an atomic model", k.port)
	}

	r.stack[k] = true

	return nil
}

func (r *router) leave(k routeKey) {
	delete(r.stack, k)
}

func (r *router) output(m Model, port string) ([]route, error) {
	k := routeKey{m, port, OutputPort}
	if err := r.enter(k); err != nil {
		return nil, err
	}
	defer r.leave(k)

	parent := m.Parent()
	if parent == nil {
		return nil, nil
	}

	var routes []route

	src := Endpoint{Model: m, Port: port}

	for _, conn := range parent.connections {
		if conn.From != src {
			continue
		}

		var (
			found []route
			err   error
		)

		switch conn.Kind {
		case InternalConnection:
			found, err = r.input(conn.To.Model, conn.To.Port)
		case OutputBoundaryConnection:
			found, err = r.output(parent, conn.To.Port)
		}

		if err != nil {
			return nil, err
		}

		routes = append(routes, found...)
	}

	return routes, nil
}

func (r *router) input(m Model, port string) ([]route, error) {
	if a, ok := m.(*Atomic); ok {
		return []route{{model: a, port: port}}, nil
	}

	k := routeKey{m, port, InputPort}
	if err := r.enter(k); err != nil {
		return nil, err
	}
	defer r.leave(k)

	c := m.(*Coupled)
	src := Endpoint{Model: c, Port: port}

	var routes []route

	for _, conn := range c.connections {
		if conn.From != src {
			continue
		}

		var (
			found []route
			err   error
		)

		switch conn.Kind {
		case InputBoundaryConnection:
			found, err = r.input(conn.To.Model, conn.To.Port)
		case PassThroughConnection:
			found, err = r.output(c, conn.To.Port)
		}

		if err != nil {
			return nil, err
		}

		routes = append(routes, found...)
	}

	return routes, nil
}
