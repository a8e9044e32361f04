package simulation

import (
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/monitoring"
	"github.com/sarchlab/devs/sim/timing"
)

// Builder can be used to build a simulation.
type Builder struct {
	logger         logrus.FieldLogger
	factory        devs.DynamicsFactory
	begin          timing.VTime
	end            timing.VTime
	policy         devs.ConfluencePolicy
	views          []devs.ViewSpec
	trace          bool
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	recordingOn    bool
	outputFileName string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		end:       timing.Infinity,
		policy:    devs.ConfluenceInternalFirst,
		monitorOn: true,
	}
}

// WithLogger sets the logger of the simulation.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithFactory sets the factory that creates dynamics from behaviors.
func (b Builder) WithFactory(f devs.DynamicsFactory) Builder {
	b.factory = f
	return b
}

// WithBeginTime sets the time the simulation starts at.
func (b Builder) WithBeginTime(t timing.VTime) Builder {
	b.begin = t
	return b
}

// WithEndTime sets the last time at which events are processed.
func (b Builder) WithEndTime(t timing.VTime) Builder {
	b.end = t
	return b
}

// WithConfluencePolicy sets the default confluence policy.
func (b Builder) WithConfluencePolicy(p devs.ConfluencePolicy) Builder {
	b.policy = p
	return b
}

// WithView adds a view.
func (b Builder) WithView(spec devs.ViewSpec) Builder {
	views := make([]devs.ViewSpec, len(b.views), len(b.views)+1)
	copy(views, b.views)
	b.views = append(views, spec)

	return b
}

// WithTrace logs every bag and transition at debug level.
func (b Builder) WithTrace() Builder {
	b.trace = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitor in a browser.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithSQLiteOutput records run information and observation tables into
// filename.sqlite3. An empty filename generates one from the run ID.
func (b Builder) WithSQLiteOutput(filename string) Builder {
	b.recordingOn = true
	b.outputFileName = filename

	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		panic("browser cannot be opened when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:          xid.New().String(),
		logger:      b.logger,
		transitions: devs.NewTransitionCounter(),
	}

	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}

	s.logger = s.logger.WithField("run", s.id)

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "devs_sim_" + s.id
		}

		s.dataRecorder = datarecording.New(outputPath)
		s.dataRecorder.RecordProperty("Run ID", s.id)
		s.dataRecorder.RecordProperty("Begin", b.begin.String())
		s.dataRecorder.RecordProperty("End", b.end.String())
	}

	cb := devs.MakeBuilder().
		WithLogger(s.logger).
		WithFactory(b.factory).
		WithBeginTime(b.begin).
		WithEndTime(b.end).
		WithConfluencePolicy(b.policy)

	for _, v := range b.views {
		cb = cb.WithView(v)
	}

	s.coordinator = cb.Build()
	s.coordinator.AcceptHook(s.transitions)

	if b.trace {
		s.coordinator.AcceptHook(devs.NewTraceLogger(s.logger))
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}

		if b.openBrowser {
			s.monitor.WithBrowser()
		}

		s.monitor.RegisterCoordinator(s.coordinator)
		s.monitor.StartServer()
	}

	return s
}
