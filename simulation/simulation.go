// Package simulation drives a coordinator through a run, together with the
// services around it: recording, monitoring and statistics.
package simulation

import (
	"context"
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/devs/stream"
	"github.com/sarchlab/devs/monitoring"
)

// TransitionTable is the table that lists the transitions of every model.
const TransitionTable = "transitions"

// TransitionRow is a row of the transition table.
type TransitionRow struct {
	Model     string
	Internal  int
	External  int
	Confluent int
}

// A Simulation provides the service requires to run a model.
type Simulation struct {
	id     string
	logger logrus.FieldLogger

	coordinator  *devs.Coordinator
	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	transitions  *devs.TransitionCounter

	bags       int
	terminated bool
}

// ID returns the ID of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Coordinator returns the coordinator of the simulation.
func (s *Simulation) Coordinator() *devs.Coordinator {
	return s.coordinator
}

// DataRecorder returns the data recorder. It is nil unless SQLite output is
// enabled.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor. It is nil if monitoring is disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Transitions returns the transition counts of the run.
func (s *Simulation) Transitions() *devs.TransitionCounter {
	return s.transitions
}

// Bags returns the number of bags processed so far.
func (s *Simulation) Bags() int {
	return s.bags
}

// SQLiteStream creates a stream that writes into a table of the data
// recorder.
func (s *Simulation) SQLiteStream(table string) *stream.SQLite {
	if s.dataRecorder == nil {
		panic("sqlite output is not enabled")
	}

	return stream.NewSQLite(s.dataRecorder, table)
}

// AddView adds a view before the model is loaded.
func (s *Simulation) AddView(spec devs.ViewSpec) error {
	return s.coordinator.AddView(spec)
}

// Load loads the model tree.
func (s *Simulation) Load(root devs.Model) error {
	return s.coordinator.Load(root)
}

// Run processes bags until the model is quiescent, the end time is reached,
// or the context is done. The context is only checked between bags.
func (s *Simulation) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			s.logger.WithField("time", s.coordinator.Now()).
				Warn("simulation interrupted")
			return err
		}

		more, err := s.coordinator.Run()
		if err != nil {
			return err
		}

		if !more {
			return nil
		}

		s.bags++
	}
}

// Finish finishes the coordinator and records the statistics of the run.
func (s *Simulation) Finish() error {
	now := s.coordinator.Now()
	err := s.coordinator.Finish()

	s.logger.WithFields(logrus.Fields{
		"time": now,
		"bags": s.bags,
	}).Info("run completed")

	if s.dataRecorder != nil {
		s.recordStatistics(now.String())
	}

	return err
}

func (s *Simulation) recordStatistics(now string) {
	s.dataRecorder.RecordProperty("Final Time", now)
	s.dataRecorder.RecordProperty("Bags", strconv.Itoa(s.bags))

	s.dataRecorder.CreateTable(TransitionTable, TransitionRow{})

	for _, m := range s.transitions.Models() {
		s.dataRecorder.InsertData(TransitionTable, TransitionRow{
			Model:     m,
			Internal:  s.transitions.Count(m, devs.InternalTransition),
			External:  s.transitions.Count(m, devs.ExternalTransition),
			Confluent: s.transitions.Count(m, devs.ConfluentTransition),
		})
	}

	s.dataRecorder.Flush()
}

// Terminate closes the data recorder. It can be called more than once.
func (s *Simulation) Terminate() error {
	if s.terminated {
		return nil
	}

	s.terminated = true

	if s.dataRecorder == nil {
		return nil
	}

	return s.dataRecorder.Close()
}

// Execute loads, runs and finishes a model. The simulation is finished even
// if the run fails.
func (s *Simulation) Execute(ctx context.Context, root devs.Model) error {
	if err := s.Load(root); err != nil {
		return err
	}

	runErr := s.Run(ctx)
	finishErr := s.Finish()

	return errors.Join(runErr, finishErr)
}
