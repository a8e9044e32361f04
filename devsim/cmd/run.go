package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/devs/config"
	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/devs/stream"
	"github.com/sarchlab/devs/examples/gencounter"
	"github.com/sarchlab/devs/sim/timing"
	"github.com/sarchlab/devs/simulation"
)

// flagView is the view that collects the --observe flags.
const flagView = "observed"

func newRunCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Run an experiment.",
		Long: "Run an experiment described by a YAML file. Flags and DEVS_* " +
			"environment variables override the values of the file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exp, err := loadExperiment(cmd)
			if err != nil {
				return err
			}

			plot, _ := cmd.Flags().GetBool("plot")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return execute(ctx, exp, cmd.OutOrStdout(), cmd.ErrOrStderr(), plot)
		},
	}

	f := c.Flags()
	f.StringP("config", "c", "", "experiment file")
	f.String("env", ".env", "file with DEVS_* variables")
	f.String("model", "", "model to simulate")
	f.Float64("duration", 0, "simulated duration, 0 runs until quiescence")
	f.String("output", "", "memory, csv, sqlite or log")
	f.String("output-path", "", "base path of the output files")
	f.String("log-level", "", "log level")
	f.String("confluence", "", "default confluence policy")
	f.Bool("trace", false, "log every bag and transition")
	f.Bool("monitor", false, "start the monitoring server")
	f.Int("monitor-port", 0, "port of the monitoring server")
	f.Bool("browser", false, "open the monitor in a browser")
	f.StringSlice("observe", nil, "model:port to observe with a timed view")
	f.Float64("step", 1, "step of the view of --observe")
	f.StringToString("param", nil, "model parameters")
	f.Bool("plot", false, "plot numeric observations kept in memory")

	return c
}

func loadExperiment(cmd *cobra.Command) (*config.Experiment, error) {
	f := cmd.Flags()

	envFile, _ := f.GetString("env")
	if err := config.LoadEnvFiles(envFile); err != nil {
		return nil, err
	}

	exp := config.Default()

	path, _ := f.GetString("config")
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		exp = loaded
	} else if err := exp.ApplyEnv(); err != nil {
		return nil, err
	}

	applyFlags(cmd, exp)

	return exp, exp.Validate()
}

func applyFlags(cmd *cobra.Command, exp *config.Experiment) {
	f := cmd.Flags()

	if f.Changed("model") {
		exp.Model, _ = f.GetString("model")
	}

	if f.Changed("duration") {
		exp.Duration, _ = f.GetFloat64("duration")
	}

	if f.Changed("output") {
		exp.Output.Kind, _ = f.GetString("output")
	}

	if f.Changed("output-path") {
		exp.Output.Path, _ = f.GetString("output-path")
	}

	if f.Changed("log-level") {
		exp.LogLevel, _ = f.GetString("log-level")
	}

	if f.Changed("confluence") {
		exp.Confluence, _ = f.GetString("confluence")
	}

	if f.Changed("trace") {
		exp.Trace, _ = f.GetBool("trace")
	}

	if f.Changed("monitor") {
		exp.Monitor.Enabled, _ = f.GetBool("monitor")
	}

	if f.Changed("monitor-port") {
		exp.Monitor.Port, _ = f.GetInt("monitor-port")
	}

	if f.Changed("browser") {
		exp.Monitor.OpenBrowser, _ = f.GetBool("browser")
	}

	if f.Changed("param") {
		params, _ := f.GetStringToString("param")
		if exp.Params == nil {
			exp.Params = make(map[string]any)
		}

		for k, v := range params {
			exp.Params[k] = parseParam(v)
		}
	}

	if f.Changed("observe") {
		observe, _ := f.GetStringSlice("observe")
		step, _ := f.GetFloat64("step")

		exp.Views = append(exp.Views, config.ViewConfig{
			Name:    flagView,
			Kind:    devs.TimedView.String(),
			Step:    step,
			Observe: observe,
		})
	}
}

func parseParam(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}

func newSimulation(exp *config.Experiment, logOut io.Writer) *simulation.Simulation {
	logger := logrus.New()
	logger.SetOutput(logOut)
	logger.SetLevel(exp.Level())

	b := simulation.MakeBuilder().
		WithLogger(logger.WithField("experiment", exp.Name)).
		WithFactory(newRegistry()).
		WithBeginTime(exp.BeginTime()).
		WithEndTime(exp.EndTime()).
		WithConfluencePolicy(exp.ConfluencePolicy())

	if exp.Trace {
		b = b.WithTrace()
	}

	if exp.Monitor.Enabled {
		if exp.Monitor.Port != 0 {
			b = b.WithMonitorPort(exp.Monitor.Port)
		}

		if exp.Monitor.OpenBrowser {
			b = b.WithBrowser()
		}
	} else {
		b = b.WithoutMonitoring()
	}

	if exp.Output.Kind == config.OutputSQLite {
		b = b.WithSQLiteOutput(exp.Output.Path)
	}

	return b.Build()
}

func execute(
	ctx context.Context,
	exp *config.Experiment,
	out, logOut io.Writer,
	plot bool,
) error {
	s := newSimulation(exp, logOut)
	defer s.Terminate()

	root, err := gencounter.Build(exp.Model, exp.Params)
	if err != nil {
		return err
	}

	memories, err := addViews(s, exp, root, logOut)
	if err != nil {
		return err
	}

	runErr := s.Execute(ctx, root)
	finalTime := s.Coordinator().Now().String()

	if err := s.Terminate(); err != nil {
		return err
	}

	report(out, s, finalTime, memories, plot)

	return runErr
}

func addViews(
	s *simulation.Simulation,
	exp *config.Experiment,
	root *devs.Coupled,
	logOut io.Writer,
) ([]memoryView, error) {
	var memories []memoryView

	for _, vc := range exp.Views {
		kind, err := devs.ParseViewKind(vc.Kind)
		if err != nil {
			return nil, err
		}

		w, mem := newStream(s, exp, vc.Name, logOut)
		if mem != nil {
			memories = append(memories, memoryView{name: vc.Name, memory: mem})
		}

		err = s.AddView(devs.ViewSpec{
			Name:   vc.Name,
			Kind:   kind,
			Step:   timing.VTime(vc.Step),
			Stream: w,
		})
		if err != nil {
			return nil, err
		}

		for _, o := range vc.Observe {
			if err := observe(root, o, vc.Name); err != nil {
				return nil, err
			}
		}
	}

	return memories, nil
}

func newStream(
	s *simulation.Simulation,
	exp *config.Experiment,
	view string,
	logOut io.Writer,
) (devs.StreamWriter, *stream.Memory) {
	switch exp.Output.Kind {
	case config.OutputCSV:
		base := exp.Output.Path
		if base == "" {
			base = exp.Name
		}

		return stream.NewCSV(base + "_" + view + ".csv"), nil
	case config.OutputSQLite:
		return s.SQLiteStream(view), nil
	case config.OutputLog:
		logger := logrus.New()
		logger.SetOutput(logOut)

		return stream.NewLog(logger), nil
	default:
		mem := stream.NewMemory()
		return mem, mem
	}
}

// observe attaches a "path:port" entry to a view. Paths start with the name
// of the root model.
func observe(root *devs.Coupled, entry, view string) error {
	path, port, err := config.SplitObservable(entry)
	if err != nil {
		return err
	}

	rel, found := strings.CutPrefix(path, root.Name())
	if !found || (rel != "" && !strings.HasPrefix(rel, ".")) {
		return fmt.Errorf("%s is not in %s", path, root.Name())
	}

	m, found := root.FindByPath(strings.TrimPrefix(rel, "."))
	if !found {
		return fmt.Errorf("model %s not found", path)
	}

	a, ok := m.(*devs.Atomic)
	if !ok {
		return fmt.Errorf("model %s is not atomic", path)
	}

	a.Observe(port, view)

	return nil
}
