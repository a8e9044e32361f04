package devs

import (
	"fmt"

	"github.com/sarchlab/devs/sim/timing"
)

// A StructureError reports a malformed model tree, port or connection. It is
// detected when the structure is built, loaded or changed and it always
// aborts the run.
type StructureError struct {
	Model  string
	Reason string
	Err    error
}

func newStructureError(model string, format string, args ...any) *StructureError {
	return &StructureError{
		Model:  model,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *StructureError) Error() string {
	msg := "structure error"
	if e.Model != "" {
		msg += " in " + e.Model
	}

	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error, if any.
func (e *StructureError) Unwrap() error {
	return e.Err
}

// A SchedulingInvariantError reports an event scheduled at or before a
// simulator's past, an invalid time advance or an arithmetic error on
// infinite times. It indicates an implementation bug and always aborts the
// run.
type SchedulingInvariantError struct {
	Model         string
	Reason        string
	Time          timing.VTime
	LastEventTime timing.VTime
	NextEventTime timing.VTime
	Err           error
}

func (e *SchedulingInvariantError) Error() string {
	msg := fmt.Sprintf(
		"scheduling invariant violated in %s at %s: %s (last event %s, next event %s)",
		e.Model, e.Time, e.Reason, e.LastEventTime, e.NextEventTime,
	)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error, if any.
func (e *SchedulingInvariantError) Unwrap() error {
	return e.Err
}

// A DynamicsError wraps a failure raised from user behavior code, either as
// a returned error or as a panic. The state of the model after the failure is
// undefined and no recovery is attempted.
type DynamicsError struct {
	Model string
	Op    string
	Time  timing.VTime
	Err   error
}

func (e *DynamicsError) Error() string {
	return fmt.Sprintf("dynamics of %s failed in %s at %s: %v",
		e.Model, e.Op, e.Time, e.Err)
}

// Unwrap returns the error raised by the dynamics.
func (e *DynamicsError) Unwrap() error {
	return e.Err
}

// A StreamError reports a failure of a stream collaborator. Stream errors are
// reported but never abort the simulation.
type StreamError struct {
	View  string
	Model string
	Port  string
	Time  timing.VTime
	Err   error
}

func (e *StreamError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("stream of view %s failed at %s: %v",
			e.View, e.Time, e.Err)
	}

	return fmt.Sprintf("stream of view %s failed at %s on %s:%s: %v",
		e.View, e.Time, e.Model, e.Port, e.Err)
}

// Unwrap returns the error raised by the stream.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// A StateError reports that the coordinator was driven out of protocol, for
// example Run before Load or Finish twice.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s a coordinator in state %s", e.Op, e.State)
}
