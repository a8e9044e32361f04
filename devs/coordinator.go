package devs

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/sim/hooking"
	"github.com/sarchlab/devs/sim/id"
	"github.com/sarchlab/devs/sim/timing"
)

// State is the lifecycle state of a coordinator.
type State int

// Coordinator states.
const (
	StateUnbuilt State = iota
	StateInitialized
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

var (
	// HookPosBeforeBag is triggered before a bag is processed.
	HookPosBeforeBag = &hooking.HookPos{Name: "BeforeBag"}
	// HookPosAfterBag is triggered after a bag is processed.
	HookPosAfterBag = &hooking.HookPos{Name: "AfterBag"}
	// HookPosBeforeTransition is triggered before a model transition.
	HookPosBeforeTransition = &hooking.HookPos{Name: "BeforeTransition"}
	// HookPosAfterTransition is triggered after a model transition.
	HookPosAfterTransition = &hooking.HookPos{Name: "AfterTransition"}
	// HookPosStreamFailure is triggered when a stream rejects an
	// observation.
	HookPosStreamFailure = &hooking.HookPos{Name: "StreamFailure"}
)

// TransitionKind tells which transition a model takes in a bag.
type TransitionKind int

// Transition kinds.
const (
	InternalTransition TransitionKind = iota
	ExternalTransition
	ConfluentTransition
)

func (k TransitionKind) String() string {
	switch k {
	case InternalTransition:
		return "internal"
	case ExternalTransition:
		return "external"
	case ConfluentTransition:
		return "confluent"
	default:
		return "unknown"
	}
}

// BagInfo is the hook item of the bag hook positions.
type BagInfo struct {
	ID          string
	Time        timing.VTime
	Observation bool
	Size        int
}

// TransitionInfo is the hook item of the transition hook positions.
type TransitionInfo struct {
	Bag       string
	Time      timing.VTime
	Model     string
	Kind      TransitionKind
	Inputs    Bag
	Simulator *Simulator
}

// A Coordinator runs a model tree. It owns the simulators, the event table
// and the views, and it processes the pending events one bag at a time.
type Coordinator struct {
	hooking.HookableBase

	logger  logrus.FieldLogger
	factory DynamicsFactory
	begin   timing.VTime
	end     timing.VTime
	policy  ConfluencePolicy
	bagIDs  id.IDGenerator

	timeLock sync.RWMutex
	now      timing.VTime

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex
	bagLock      sync.Mutex

	state        State
	failure      error
	root         Model
	simulators   []*Simulator
	simIndex     map[*Atomic]*Simulator
	fromFactory  map[*Atomic]bool
	nextOrder    uint64
	table        *EventTable
	viewSpecs    []ViewSpec
	views        []*View
	viewIndex    map[string]*View
	routes       map[*Simulator]map[string][]delivery
	pending      []StructuralChange
	inBag        bool
	streamErrors []*StreamError
}

func (c *Coordinator) reset() {
	c.root = nil
	c.simulators = nil
	c.simIndex = make(map[*Atomic]*Simulator)
	c.fromFactory = make(map[*Atomic]bool)
	c.nextOrder = 0
	c.table = NewEventTable()
	c.views = nil
	c.viewIndex = make(map[string]*View)
	c.routes = make(map[*Simulator]map[string][]delivery)
	c.pending = nil
	c.inBag = false
}

// AddView registers a view. Views must be registered before Load. A view
// is used for one run only; its stream is closed by Finish.
func (c *Coordinator) AddView(spec ViewSpec) error {
	if c.state != StateUnbuilt && c.state != StateFinished {
		return &StateError{Op: "add a view to", State: c.state}
	}

	if _, err := newView(spec, 0); err != nil {
		return err
	}

	for _, s := range c.viewSpecs {
		if s.Name == spec.Name {
			return newStructureError("", "view %s already exists", spec.Name)
		}

		if sameStream(s.Stream, spec.Stream) {
			return newStructureError("",
				"views %s and %s share a stream", s.Name, spec.Name)
		}
	}

	c.viewSpecs = append(c.viewSpecs, spec)

	return nil
}

// Load builds a simulator for every atomic model of the tree and
// initializes the models at the begin time.
func (c *Coordinator) Load(root Model) error {
	c.bagLock.Lock()
	defer c.bagLock.Unlock()

	if c.state != StateUnbuilt && c.state != StateFinished {
		return &StateError{Op: "load", State: c.state}
	}

	if root != nil && root.Parent() != nil {
		return newStructureError(root.Path(), "the root model has a parent")
	}

	if err := Validate(root); err != nil {
		return err
	}

	c.reset()
	c.failure = nil
	c.streamErrors = nil
	c.root = root
	c.writeNow(c.begin)

	if err := c.load(root); err != nil {
		c.release()
		return err
	}

	c.state = StateInitialized

	c.logger.WithFields(logrus.Fields{
		"model":      root.Path(),
		"simulators": len(c.simulators),
		"views":      len(c.views),
		"time":       c.begin,
	}).Info("model loaded")

	return nil
}

func (c *Coordinator) load(root Model) error {
	for i, spec := range c.viewSpecs {
		v, err := newView(spec, i)
		if err != nil {
			return err
		}

		c.views = append(c.views, v)
		c.viewIndex[spec.Name] = v
	}

	sims, err := c.instantiate(root, c.begin)
	if err != nil {
		return err
	}

	for _, v := range c.views {
		if v.Kind() == TimedView && timing.Compare(c.begin, c.end) <= 0 {
			c.table.ScheduleView(v, c.begin)
		}
	}

	return c.sampleEventViews(c.begin, sims)
}

// instantiate creates, primes and attaches to views the simulators of every
// atomic model in the subtree, in depth-first order.
func (c *Coordinator) instantiate(m Model, t timing.VTime) ([]*Simulator, error) {
	atomics := atomicsOf(m)
	sims := make([]*Simulator, 0, len(atomics))

	for _, a := range atomics {
		sim, err := c.newSimulator(a)
		if err != nil {
			return nil, err
		}

		sims = append(sims, sim)
	}

	for _, sim := range sims {
		if _, err := sim.ScheduleFirst(t); err != nil {
			return nil, err
		}

		c.table.Schedule(sim)
	}

	for _, sim := range sims {
		for _, o := range sim.model.observables {
			if err := c.observe(sim, o.Port, o.View); err != nil {
				return nil, err
			}
		}
	}

	return sims, nil
}

func (c *Coordinator) newSimulator(a *Atomic) (*Simulator, error) {
	if _, found := c.simIndex[a]; found {
		return nil, newStructureError(a.Path(), "model is already loaded")
	}

	if a.dynamics == nil {
		d, err := c.createDynamics(a)
		if err != nil {
			return nil, err
		}

		a.dynamics = d
		c.fromFactory[a] = true
	}

	sim := NewSimulator(a)
	sim.order = c.nextOrder
	c.nextOrder++

	if sim.policy == ConfluenceDefault {
		sim.policy = c.policy
	}

	sim.bind(&simContext{sim: sim, coord: c})

	c.simulators = append(c.simulators, sim)
	c.simIndex[a] = sim

	return sim, nil
}

func (c *Coordinator) createDynamics(a *Atomic) (Dynamics, error) {
	if c.factory == nil {
		return nil, newStructureError(a.Path(),
			"behavior %s needs a dynamics factory", a.behavior)
	}

	d, err := c.factory.NewDynamics(a.behavior, DynamicsInit{
		Model:      a,
		Attributes: a.attributes,
	})
	if err != nil {
		return nil, &StructureError{
			Model:  a.Path(),
			Reason: "cannot create behavior " + a.behavior,
			Err:    err,
		}
	}

	if d == nil {
		return nil, newStructureError(a.Path(),
			"factory returned no dynamics for %s", a.behavior)
	}

	return d, nil
}

func (c *Coordinator) observe(sim *Simulator, port, view string) error {
	v, found := c.viewIndex[view]
	if !found {
		return newStructureError(sim.path, "unknown view %s", view)
	}

	return v.addObservable(sim, port)
}

func (c *Coordinator) sampleEventViews(t timing.VTime, sims []*Simulator) error {
	for _, v := range c.views {
		if v.Kind() != EventView {
			continue
		}

		for _, sim := range sims {
			if !v.observes(sim) {
				continue
			}

			if err := v.sample(t, sim, c.reportStreamError); err != nil {
				return err
			}
		}
	}

	return nil
}

// Run processes one bag. It returns false when there is nothing left to do
// before the end time, or when the run has failed.
func (c *Coordinator) Run() (bool, error) {
	c.pauseLock.Lock()
	defer c.pauseLock.Unlock()

	c.bagLock.Lock()
	defer c.bagLock.Unlock()

	if c.state != StateInitialized && c.state != StateRunning {
		return false, &StateError{Op: "run", State: c.state}
	}

	if c.failure != nil {
		return false, c.failure
	}

	c.state = StateRunning

	top := c.table.peek()
	if top == nil {
		return false, nil
	}

	if top.kind == viewEntry && !c.table.HasModelEvents() &&
		timing.Compare(top.time, c.readNow()) > 0 {
		return false, nil
	}

	if timing.Compare(top.time, c.end) > 0 {
		return false, nil
	}

	if timing.Compare(top.time, c.readNow()) < 0 {
		err := &SchedulingInvariantError{
			Reason:        "event table went back in time",
			Time:          top.time,
			LastEventTime: c.readNow(),
			NextEventTime: top.time,
		}
		c.fail(err)

		return false, err
	}

	c.writeNow(top.time)

	info := BagInfo{ID: c.bagIDs.Generate(), Time: top.time}

	var err error
	if top.kind == viewEntry {
		info.Observation = true
		err = c.observationBag(info)
	} else {
		err = c.modelBag(info)
	}

	if err == nil {
		err = c.applyPending()
	}

	if err != nil {
		c.fail(err)
		return false, err
	}

	return true, nil
}

// Inject schedules an external event on an input port of any loaded model.
// Input ports of coupled models route the event down to atomic models.
func (c *Coordinator) Inject(
	t timing.VTime,
	m Model,
	port string,
	value any,
) error {
	if c.state != StateInitialized && c.state != StateRunning {
		return &StateError{Op: "inject into", State: c.state}
	}

	if m == nil || !c.contains(m) {
		return newStructureError("", "injection into a model that is not loaded")
	}

	now := c.readNow()
	if !t.IsValid() || t.IsInfinity() || timing.Compare(t, now) < 0 {
		return &SchedulingInvariantError{
			Model:         m.Path(),
			Reason:        "injection must happen at a finite time not before now",
			Time:          t,
			LastEventTime: now,
			NextEventTime: c.table.NextTime(),
		}
	}

	p, found := m.Port(port)
	if !found || p.Direction() != InputPort {
		return newStructureError(m.Path(), "unknown input port %s", port)
	}

	c.table.scheduleInjection(t, &injection{model: m, port: port, value: value})

	return nil
}

// Finish samples the finish views, finishes every model, closes every
// stream and releases the model tree.
func (c *Coordinator) Finish() error {
	c.pauseLock.Lock()
	defer c.pauseLock.Unlock()

	c.bagLock.Lock()
	defer c.bagLock.Unlock()

	if c.state != StateInitialized && c.state != StateRunning {
		return &StateError{Op: "finish", State: c.state}
	}

	t := c.readNow()

	var errs []error

	for _, v := range c.views {
		if v.Kind() != FinishView {
			continue
		}

		if err := v.sample(t, nil, c.reportStreamError); err != nil {
			errs = append(errs, err)
		}
	}

	for _, sim := range c.simulators {
		if err := sim.Finish(t); err != nil {
			c.logger.WithError(err).WithField("model", sim.path).
				Error("model failed to finish")
			errs = append(errs, err)
		}
	}

	for _, v := range c.views {
		if se := v.close(t); se != nil {
			c.reportStreamError(se)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"time":       t,
		"simulators": len(c.simulators),
	}).Info("simulation finished")

	c.release()
	c.viewSpecs = nil
	c.state = StateFinished

	return errors.Join(errs...)
}

// release forgets the model tree. Dynamics created by the factory are
// detached so that the tree can be loaded again.
func (c *Coordinator) release() {
	for a := range c.fromFactory {
		a.dynamics = nil
	}

	c.reset()
}

func (c *Coordinator) fail(err error) {
	c.failure = err
	c.logger.WithError(err).WithField("time", c.readNow()).
		Error("simulation aborted")
}

func (c *Coordinator) reportStreamError(e *StreamError) {
	c.streamErrors = append(c.streamErrors, e)

	c.logger.WithError(e.Err).WithFields(logrus.Fields{
		"view":  e.View,
		"model": e.Model,
		"time":  e.Time,
	}).Warn("stream failure")

	c.InvokeHook(hooking.HookCtx{Domain: c, Pos: HookPosStreamFailure, Item: e})
}

func (c *Coordinator) contains(m Model) bool {
	if c.root == nil {
		return false
	}

	for cur := m; cur != nil; cur = parentOf(cur) {
		if cur == c.root {
			return true
		}
	}

	return false
}

func (c *Coordinator) readNow() timing.VTime {
	c.timeLock.RLock()
	t := c.now
	c.timeLock.RUnlock()

	return t
}

func (c *Coordinator) writeNow(t timing.VTime) {
	c.timeLock.Lock()
	c.now = t
	c.timeLock.Unlock()
}

// Now returns the current simulation time.
func (c *Coordinator) Now() timing.VTime {
	return c.readNow()
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	return c.state
}

// Failure returns the error that aborted the run, if any.
func (c *Coordinator) Failure() error {
	return c.failure
}

// BeginTime returns the time at which the models are initialized.
func (c *Coordinator) BeginTime() timing.VTime {
	return c.begin
}

// EndTime returns the last time at which events are processed.
func (c *Coordinator) EndTime() timing.VTime {
	return c.end
}

// NextTime returns the time of the next pending entry.
func (c *Coordinator) NextTime() timing.VTime {
	return c.table.NextTime()
}

// Logger returns the logger of the coordinator.
func (c *Coordinator) Logger() logrus.FieldLogger {
	return c.logger
}

// Root returns the loaded model tree.
func (c *Coordinator) Root() Model {
	return c.root
}

// Simulators returns the simulators in arena order.
func (c *Coordinator) Simulators() []*Simulator {
	list := make([]*Simulator, len(c.simulators))
	copy(list, c.simulators)

	return list
}

// Simulator returns the simulator of the atomic model at the given path.
func (c *Coordinator) Simulator(path string) (*Simulator, bool) {
	for _, sim := range c.simulators {
		if sim.path == path {
			return sim, true
		}
	}

	return nil, false
}

// Views returns the views of the current run.
func (c *Coordinator) Views() []*View {
	list := make([]*View, len(c.views))
	copy(list, c.views)

	return list
}

// View returns the view with the given name.
func (c *Coordinator) View(name string) (*View, bool) {
	v, found := c.viewIndex[name]
	return v, found
}

// StreamErrors returns the stream failures reported since Load.
func (c *Coordinator) StreamErrors() []*StreamError {
	list := make([]*StreamError, len(c.streamErrors))
	copy(list, c.streamErrors)

	return list
}

// Pause prevents the coordinator from processing more bags.
func (c *Coordinator) Pause() {
	c.isPausedLock.Lock()
	defer c.isPausedLock.Unlock()

	if c.isPaused {
		return
	}

	c.pauseLock.Lock()
	c.isPaused = true
}

// Continue allows the coordinator to process bags again.
func (c *Coordinator) Continue() {
	c.isPausedLock.Lock()
	defer c.isPausedLock.Unlock()

	if !c.isPaused {
		return
	}

	c.pauseLock.Unlock()
	c.isPaused = false
}

// IsPaused tells if the coordinator is paused.
func (c *Coordinator) IsPaused() bool {
	c.isPausedLock.Lock()
	defer c.isPausedLock.Unlock()

	return c.isPaused
}

// Inspect runs f while no bag is being processed. It may be called from
// another goroutine, also while the coordinator is paused.
func (c *Coordinator) Inspect(f func()) {
	c.bagLock.Lock()
	defer c.bagLock.Unlock()

	f()
}
