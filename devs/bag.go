package devs

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/sim/hooking"
	"github.com/sarchlab/devs/sim/timing"
)

// A delivery is a resolved destination of an output port.
type delivery struct {
	sim  *Simulator
	port string
}

// modelBag runs the transitions of every model involved at the earliest
// time. All the outputs are computed before the first transition.
func (c *Coordinator) modelBag(info BagInfo) error {
	t := info.Time
	entries := c.table.popBag()
	info.Size = len(entries)

	var members, imminent []*Simulator

	join := func(sim *Simulator) {
		if !sim.inBag {
			sim.inBag = true
			members = append(members, sim)
		}
	}

	c.inBag = true

	defer func() {
		for _, sim := range members {
			sim.inputs = nil
			sim.imminent = false
			sim.inBag = false
		}

		c.inBag = false
	}()

	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosBeforeBag, Item: info})

	for _, e := range entries {
		if e.sim != nil {
			e.sim.imminent = true
			imminent = append(imminent, e.sim)
			join(e.sim)

			continue
		}

		if err := c.deliverInjection(t, e.injection, join); err != nil {
			return err
		}
	}

	for _, sim := range imminent {
		out, err := sim.ComputeOutput(t)
		if err != nil {
			return err
		}

		for _, ev := range out {
			dests, err := c.routesOf(sim, ev.Port)
			if err != nil {
				return err
			}

			for _, d := range dests {
				delivered := ev
				delivered.Port = d.port
				delivered.Target = d.sim.path
				d.sim.inputs = append(d.sim.inputs, delivered)
				join(d.sim)
			}
		}
	}

	sort.SliceStable(members, func(i, j int) bool {
		ei, ej := isExecutive(members[i].dynamics), isExecutive(members[j].dynamics)
		if ei != ej {
			return ej
		}

		return members[i].order < members[j].order
	})

	for _, sim := range members {
		if err := c.transition(info, sim); err != nil {
			return err
		}
	}

	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosAfterBag, Item: info})

	return nil
}

func (c *Coordinator) transition(info BagInfo, sim *Simulator) error {
	t := info.Time

	ti := TransitionInfo{
		Bag:       info.ID,
		Time:      t,
		Model:     sim.path,
		Inputs:    sim.inputs,
		Simulator: sim,
	}

	switch {
	case sim.imminent && len(sim.inputs) > 0:
		ti.Kind = ConfluentTransition
	case sim.imminent:
		ti.Kind = InternalTransition
	default:
		ti.Kind = ExternalTransition
	}

	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosBeforeTransition, Item: ti})

	var err error

	switch ti.Kind {
	case InternalTransition:
		err = sim.FireInternal(t)
	case ExternalTransition:
		err = sim.FireExternal(sim.inputs, t)
	case ConfluentTransition:
		err = sim.FireConfluent(sim.inputs, t)
	}

	if err != nil {
		return err
	}

	c.table.Schedule(sim)

	if err := c.sampleEventViews(t, []*Simulator{sim}); err != nil {
		return err
	}

	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosAfterTransition, Item: ti})

	return nil
}

func (c *Coordinator) deliverInjection(
	t timing.VTime,
	inj *injection,
	join func(*Simulator),
) error {
	if !c.contains(inj.model) {
		c.logger.WithFields(logrus.Fields{
			"port": inj.port,
			"time": t,
		}).Warn("dropping injection into a removed model")

		return nil
	}

	routes, err := resolveInput(inj.model, inj.port)
	if err != nil {
		return err
	}

	for _, r := range routes {
		sim, found := c.simIndex[r.model]
		if !found {
			return newStructureError(r.model.Path(), "model has no simulator")
		}

		sim.inputs = append(sim.inputs, ExternalEvent{
			Time:   t,
			Port:   r.port,
			Value:  inj.value,
			Target: sim.path,
		})
		join(sim)
	}

	return nil
}

func (c *Coordinator) routesOf(sim *Simulator, port string) ([]delivery, error) {
	byPort, found := c.routes[sim]
	if !found {
		byPort = make(map[string][]delivery)
		c.routes[sim] = byPort
	}

	if ds, found := byPort[port]; found {
		return ds, nil
	}

	routes, err := resolveOutput(sim.model, port)
	if err != nil {
		return nil, err
	}

	ds := make([]delivery, 0, len(routes))

	for _, r := range routes {
		target, found := c.simIndex[r.model]
		if !found {
			return nil, newStructureError(r.model.Path(), "model has no simulator")
		}

		ds = append(ds, delivery{sim: target, port: r.port})
	}

	byPort[port] = ds

	return ds, nil
}

func (c *Coordinator) observationBag(info BagInfo) error {
	t := info.Time
	entries := c.table.popBag()
	info.Size = len(entries)

	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosBeforeBag, Item: info})

	for _, e := range entries {
		v := e.view

		if err := v.sample(t, nil, c.reportStreamError); err != nil {
			return err
		}

		next := timing.Add(t, v.Step())
		if timing.Compare(next, c.end) <= 0 {
			c.table.ScheduleView(v, next)
		}
	}

	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosAfterBag, Item: info})

	return nil
}

func (c *Coordinator) request(
	sim *Simulator,
	port string,
	value any,
) ([]Response, error) {
	if !c.inBag {
		return nil, &StateError{Op: "send a request outside a transition of", State: c.state}
	}

	p, found := sim.model.Port(port)
	if !found || p.Direction() != OutputPort {
		return nil, newStructureError(sim.path,
			"request on unknown output port %s", port)
	}

	dests, err := c.routesOf(sim, port)
	if err != nil {
		return nil, err
	}

	now := c.readNow()

	var responses []Response

	for _, d := range dests {
		responder, ok := d.sim.dynamics.(Responder)
		if !ok {
			continue
		}

		req := InstantaneousEvent{
			Time:   now,
			Source: sim.path,
			Target: d.sim.path,
			Port:   d.port,
			Value:  value,
		}

		var answer any

		err := d.sim.call("instantaneous request", now, func() error {
			answer = responder.Respond(req)
			return nil
		})
		if err != nil {
			return nil, err
		}

		responses = append(responses, Response{
			Model: d.sim.path,
			Port:  d.port,
			Value: answer,
		})
	}

	return responses, nil
}
