package stream

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/sim/timing"
)

// CSV writes observations into a CSV file, one row per observation.
type CSV struct {
	path       string
	file       *os.File
	writer     *csv.Writer
	pending    []devs.Observation
	bufferSize int
	closed     bool
}

// NewCSV creates a CSV stream. The file is created by Init.
func NewCSV(path string) *CSV {
	return &CSV{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the CSV file. If the file already exists, it will be
// overwritten. Pending rows are flushed if the program exits early.
func (s *CSV) Init() error {
	file, err := os.Create(s.path)
	if err != nil {
		return err
	}

	s.file = file
	s.writer = csv.NewWriter(file)

	if err := s.writer.Write(
		[]string{"Time", "Model", "Port", "View", "Value"},
	); err != nil {
		return err
	}

	atexit.Register(func() {
		_ = s.Close(timing.Infinity)
	})

	return nil
}

// Path returns the path of the CSV file.
func (s *CSV) Path() string {
	return s.path
}

// Write buffers an observation.
func (s *CSV) Write(o devs.Observation) error {
	if s.closed {
		return fmt.Errorf("csv stream %s is closed", s.path)
	}

	if s.file == nil {
		if err := s.Init(); err != nil {
			return err
		}
	}

	s.pending = append(s.pending, o)
	if len(s.pending) >= s.bufferSize {
		return s.Flush()
	}

	return nil
}

// Flush writes the buffered observations.
func (s *CSV) Flush() error {
	for _, o := range s.pending {
		err := s.writer.Write([]string{
			o.Time.String(),
			o.Model,
			o.Port,
			o.View,
			fmt.Sprint(o.Value),
		})
		if err != nil {
			return err
		}
	}

	s.pending = nil
	s.writer.Flush()

	return s.writer.Error()
}

// Close flushes the rows and closes the file.
func (s *CSV) Close(_ timing.VTime) error {
	if s.closed {
		return nil
	}

	s.closed = true

	if s.file == nil {
		return nil
	}

	if err := s.Flush(); err != nil {
		s.file.Close()
		return err
	}

	return s.file.Close()
}
