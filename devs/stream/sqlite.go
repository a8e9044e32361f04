package stream

import (
	"fmt"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/sim/timing"
)

// Row is how an observation is stored in a database table.
type Row struct {
	Time  float64
	Model string
	Port  string
	View  string
	Value string
}

// SQLite stores observations in a table of a data recorder. The recorder is
// shared and is not closed by the stream.
type SQLite struct {
	recorder datarecording.DataRecorder
	table    string
	closed   bool
}

// NewSQLite creates the table and returns a stream that fills it.
func NewSQLite(recorder datarecording.DataRecorder, table string) *SQLite {
	recorder.CreateTable(table, Row{})

	return &SQLite{
		recorder: recorder,
		table:    table,
	}
}

// Table returns the name of the table.
func (s *SQLite) Table() string {
	return s.table
}

// Write inserts an observation. Values are stored in their printed form.
func (s *SQLite) Write(o devs.Observation) error {
	if s.closed {
		return fmt.Errorf("sqlite stream %s is closed", s.table)
	}

	s.recorder.InsertData(s.table, Row{
		Time:  float64(o.Time),
		Model: o.Model,
		Port:  o.Port,
		View:  o.View,
		Value: fmt.Sprint(o.Value),
	})

	return nil
}

// Close flushes the recorder.
func (s *SQLite) Close(_ timing.VTime) error {
	if s.closed {
		return nil
	}

	s.closed = true
	s.recorder.Flush()

	return nil
}
