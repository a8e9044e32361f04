// Package config loads experiment descriptions from YAML files. Values can
// be overridden with DEVS_* environment variables, which may come from a
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/sim/timing"
)

// Default values of an experiment.
const (
	DefaultName     = "experiment"
	DefaultModel    = "gencounter"
	DefaultLogLevel = "info"
	DefaultOutput   = OutputMemory
)

// Kinds of output.
const (
	OutputMemory = "memory"
	OutputCSV    = "csv"
	OutputSQLite = "sqlite"
	OutputLog    = "log"
)

// Experiment describes one simulation run.
type Experiment struct {
	Name       string         `yaml:"name"`
	Model      string         `yaml:"model"`
	Begin      float64        `yaml:"begin"`
	Duration   float64        `yaml:"duration"`
	LogLevel   string         `yaml:"log_level"`
	Confluence string         `yaml:"confluence"`
	Trace      bool           `yaml:"trace"`
	Monitor    MonitorConfig  `yaml:"monitor"`
	Output     OutputConfig   `yaml:"output"`
	Views      []ViewConfig   `yaml:"views"`
	Params     map[string]any `yaml:"params"`
}

// MonitorConfig controls the monitoring server.
type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// OutputConfig selects where observations go.
type OutputConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// ViewConfig describes a view. Observe lists "model.path:port" entries.
type ViewConfig struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Step    float64  `yaml:"step"`
	Observe []string `yaml:"observe"`
}

// Default returns an experiment with the default values.
func Default() *Experiment {
	return &Experiment{
		Name:       DefaultName,
		Model:      DefaultModel,
		LogLevel:   DefaultLogLevel,
		Confluence: devs.ConfluenceInternalFirst.String(),
		Output:     OutputConfig{Kind: DefaultOutput},
	}
}

// Load reads an experiment file. Fields not in the file keep their default
// values. Environment overrides are applied after the file.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	exp := Default()
	if err := yaml.Unmarshal(data, exp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := exp.ApplyEnv(); err != nil {
		return nil, err
	}

	return exp, exp.Validate()
}

// Save writes the experiment as YAML.
func Save(path string, exp *Experiment) error {
	data, err := yaml.Marshal(exp)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// LoadEnvFiles loads .env style files into the environment. Missing files
// are skipped. Variables already set are not overwritten.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	return nil
}

// ApplyEnv overrides fields with the DEVS_* environment variables.
func (e *Experiment) ApplyEnv() error {
	if v, ok := os.LookupEnv("DEVS_NAME"); ok {
		e.Name = v
	}

	if v, ok := os.LookupEnv("DEVS_MODEL"); ok {
		e.Model = v
	}

	if v, ok := os.LookupEnv("DEVS_LOG_LEVEL"); ok {
		e.LogLevel = v
	}

	if v, ok := os.LookupEnv("DEVS_CONFLUENCE"); ok {
		e.Confluence = v
	}

	if v, ok := os.LookupEnv("DEVS_OUTPUT"); ok {
		e.Output.Kind = v
	}

	if v, ok := os.LookupEnv("DEVS_OUTPUT_PATH"); ok {
		e.Output.Path = v
	}

	if err := envFloat("DEVS_BEGIN", &e.Begin); err != nil {
		return err
	}

	if err := envFloat("DEVS_DURATION", &e.Duration); err != nil {
		return err
	}

	if err := envBool("DEVS_TRACE", &e.Trace); err != nil {
		return err
	}

	if err := envBool("DEVS_MONITOR", &e.Monitor.Enabled); err != nil {
		return err
	}

	if v, ok := os.LookupEnv("DEVS_MONITOR_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DEVS_MONITOR_PORT: %w", err)
		}

		e.Monitor.Port = port
	}

	return nil
}

func envFloat(name string, dst *float64) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	*dst = f

	return nil
}

func envBool(name string, dst *bool) error {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	*dst = b

	return nil
}

// Validate checks that the experiment can be run.
func (e *Experiment) Validate() error {
	var errs []error

	if e.Duration < 0 {
		errs = append(errs, fmt.Errorf("negative duration %v", e.Duration))
	}

	if _, err := logrus.ParseLevel(e.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if _, err := devs.ParseConfluencePolicy(e.Confluence); err != nil {
		errs = append(errs, err)
	}

	switch e.Output.Kind {
	case OutputMemory, OutputCSV, OutputSQLite, OutputLog:
	default:
		errs = append(errs, fmt.Errorf("unknown output kind %q", e.Output.Kind))
	}

	names := make(map[string]bool)
	for _, v := range e.Views {
		errs = append(errs, v.validate(names)...)
	}

	return errors.Join(errs...)
}

func (v ViewConfig) validate(names map[string]bool) []error {
	var errs []error

	if names[v.Name] {
		errs = append(errs, fmt.Errorf("duplicate view %q", v.Name))
	}
	names[v.Name] = true

	kind, err := devs.ParseViewKind(v.Kind)
	if err != nil {
		errs = append(errs, err)
	}

	if err == nil && kind == devs.TimedView && v.Step <= 0 {
		errs = append(errs,
			fmt.Errorf("timed view %q needs a positive step", v.Name))
	}

	for _, o := range v.Observe {
		if _, _, err := SplitObservable(o); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// SplitObservable splits a "model.path:port" entry.
func SplitObservable(s string) (model, port string, err error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("observable %q is not model:port", s)
	}

	return s[:i], s[i+1:], nil
}

// BeginTime returns the begin time of the run.
func (e *Experiment) BeginTime() timing.VTime {
	return timing.VTime(e.Begin)
}

// EndTime returns the end time of the run. A zero duration runs until
// quiescence.
func (e *Experiment) EndTime() timing.VTime {
	if e.Duration == 0 {
		return timing.Infinity
	}

	return timing.Add(e.BeginTime(), timing.VTime(e.Duration))
}

// Level returns the log level.
func (e *Experiment) Level() logrus.Level {
	level, err := logrus.ParseLevel(e.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}

	return level
}

// ConfluencePolicy returns the default confluence policy.
func (e *Experiment) ConfluencePolicy() devs.ConfluencePolicy {
	p, err := devs.ParseConfluencePolicy(e.Confluence)
	if err != nil {
		return devs.ConfluenceInternalFirst
	}

	return p
}
