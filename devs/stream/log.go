package stream

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/sim/timing"
)

// Log writes every observation as a log entry.
type Log struct {
	logger logrus.FieldLogger
	level  logrus.Level
}

// NewLog creates a stream that logs at info level.
func NewLog(logger logrus.FieldLogger) *Log {
	return &Log{logger: logger, level: logrus.InfoLevel}
}

// WithLevel sets the level of the log entries.
func (s *Log) WithLevel(level logrus.Level) *Log {
	s.level = level
	return s
}

// Write logs the observation.
func (s *Log) Write(o devs.Observation) error {
	entry := s.logger.WithFields(logrus.Fields{
		"time":  o.Time,
		"model": o.Model,
		"port":  o.Port,
		"view":  o.View,
		"value": o.Value,
	})

	switch s.level {
	case logrus.DebugLevel, logrus.TraceLevel:
		entry.Debug("observation")
	case logrus.WarnLevel:
		entry.Warn("observation")
	default:
		entry.Info("observation")
	}

	return nil
}

// Close logs the end of the stream.
func (s *Log) Close(t timing.VTime) error {
	s.logger.WithField("time", t).Debug("stream closed")
	return nil
}
