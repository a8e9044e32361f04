// Package stream provides the writers that receive the observations of
// views.
package stream

import (
	"sync"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/sim/timing"
)

// Memory keeps the observations in memory. It is safe to read it while a
// simulation runs in another goroutine.
type Memory struct {
	lock         sync.Mutex
	observations []devs.Observation
	closed       bool
	closedAt     timing.VTime
}

// NewMemory creates an empty Memory stream.
func NewMemory() *Memory {
	return &Memory{}
}

// Write keeps the observation.
func (m *Memory) Write(o devs.Observation) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.observations = append(m.observations, o)

	return nil
}

// Close marks the stream as closed.
func (m *Memory) Close(t timing.VTime) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.closed = true
	m.closedAt = t

	return nil
}

// Observations returns a copy of the observations received so far.
func (m *Memory) Observations() []devs.Observation {
	m.lock.Lock()
	defer m.lock.Unlock()

	list := make([]devs.Observation, len(m.observations))
	copy(list, m.observations)

	return list
}

// Last returns the latest observation of a model port.
func (m *Memory) Last(model, port string) (devs.Observation, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i := len(m.observations) - 1; i >= 0; i-- {
		o := m.observations[i]
		if o.Model == model && o.Port == port {
			return o, true
		}
	}

	return devs.Observation{}, false
}

// Closed tells if the stream was closed, and when.
func (m *Memory) Closed() (bool, timing.VTime) {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.closed, m.closedAt
}
