package devs

import (
	"github.com/sarchlab/devs/sim/naming"
)

// PortDirection tells if a port receives or emits events.
type PortDirection int

// Port directions.
const (
	InputPort PortDirection = iota
	OutputPort
)

func (d PortDirection) String() string {
	switch d {
	case InputPort:
		return "input"
	case OutputPort:
		return "output"
	default:
		return "unknown"
	}
}

// A Port is a named, directional attachment point owned by a model. The name
// is unique within the model, regardless of direction.
type Port struct {
	name      string
	direction PortDirection
	owner     Model
}

// Name returns the name of the port.
func (p *Port) Name() string {
	return p.name
}

// Direction returns whether the port is an input or an output port.
func (p *Port) Direction() PortDirection {
	return p.direction
}

// Owner returns the model that owns the port.
func (p *Port) Owner() Model {
	return p.owner
}

// FullName returns the path of the owner followed by the port name.
func (p *Port) FullName() string {
	return naming.BuildName(p.owner.Path(), p.name)
}

// portSet keeps the ports of a model in insertion order.
type portSet struct {
	ports []*Port
	index map[string]*Port
}

func (s *portSet) add(owner Model, name string, dir PortDirection) (*Port, error) {
	if err := naming.ValidateElement(name); err != nil {
		return nil, &StructureError{
			Model:  owner.Path(),
			Reason: "invalid port name",
			Err:    err,
		}
	}

	if s.index == nil {
		s.index = make(map[string]*Port)
	}

	if _, found := s.index[name]; found {
		return nil, newStructureError(owner.Path(),
			"port %s already exists", name)
	}

	p := &Port{name: name, direction: dir, owner: owner}
	s.ports = append(s.ports, p)
	s.index[name] = p

	return p, nil
}

func (s *portSet) get(name string) (*Port, bool) {
	p, found := s.index[name]
	return p, found
}

func (s *portSet) remove(name string) bool {
	if _, found := s.index[name]; !found {
		return false
	}

	delete(s.index, name)

	for i, p := range s.ports {
		if p.name == name {
			s.ports = append(s.ports[:i], s.ports[i+1:]...)
			break
		}
	}

	return true
}

func (s *portSet) list(dir PortDirection) []*Port {
	list := make([]*Port, 0, len(s.ports))
	for _, p := range s.ports {
		if p.direction == dir {
			list = append(list, p)
		}
	}

	return list
}

func (s *portSet) all() []*Port {
	list := make([]*Port, len(s.ports))
	copy(list, s.ports)

	return list
}
