package devs

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/sim/id"
	"github.com/sarchlab/devs/sim/timing"
)

// Builder can build coordinators.
type Builder struct {
	logger  logrus.FieldLogger
	factory DynamicsFactory
	begin   timing.VTime
	end     timing.VTime
	policy  ConfluencePolicy
	views   []ViewSpec
}

// MakeBuilder creates a builder with default parameters. By default, the
// simulation starts at 0, never ends on its own and resolves confluent
// events with the internal transition first.
func MakeBuilder() Builder {
	return Builder{
		begin:  timing.Zero,
		end:    timing.Infinity,
		policy: ConfluenceInternalFirst,
	}
}

// WithLogger sets the logger that receives the diagnostics of the
// coordinator.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithFactory sets the factory that creates the dynamics of atomic models
// defined by a behavior identifier.
func (b Builder) WithFactory(f DynamicsFactory) Builder {
	b.factory = f
	return b
}

// WithBeginTime sets the time at which the models are initialized.
func (b Builder) WithBeginTime(t timing.VTime) Builder {
	b.begin = t
	return b
}

// WithEndTime sets the last time at which events are processed. Events at
// exactly the end time are processed.
func (b Builder) WithEndTime(t timing.VTime) Builder {
	b.end = t
	return b
}

// WithDuration sets the end time relative to the begin time.
func (b Builder) WithDuration(d timing.VTime) Builder {
	b.end = timing.Add(b.begin, d)
	return b
}

// WithConfluencePolicy sets the policy used by models that keep the default
// policy.
func (b Builder) WithConfluencePolicy(p ConfluencePolicy) Builder {
	b.policy = p
	return b
}

// WithView registers a view.
func (b Builder) WithView(spec ViewSpec) Builder {
	views := make([]ViewSpec, len(b.views), len(b.views)+1)
	copy(views, b.views)
	b.views = append(views, spec)

	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.begin.IsValid() || b.begin.IsInfinity() {
		panic("begin time must be finite")
	}

	if !b.end.IsValid() || timing.Compare(b.end, b.begin) < 0 {
		panic("end time must not be earlier than begin time")
	}
}

// Build creates a coordinator in the Unbuilt state.
func (b Builder) Build() *Coordinator {
	b.parametersMustBeValid()

	c := &Coordinator{
		logger:  b.logger,
		factory: b.factory,
		begin:   b.begin,
		end:     b.end,
		policy:  b.policy,
		bagIDs:  id.NewSequentialIDGenerator(),
		now:     b.begin,
	}

	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}

	if c.policy == ConfluenceDefault {
		c.policy = ConfluenceInternalFirst
	}

	c.reset()

	for _, spec := range b.views {
		if err := c.AddView(spec); err != nil {
			panic(err)
		}
	}

	return c
}
