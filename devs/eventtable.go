package devs

import (
	"container/heap"

	"github.com/sarchlab/devs/sim/timing"
)

// entryKind orders entries that share a timestamp. Injections come first so
// that their receivers join the bag; views come last so that they observe
// the state after every model event of the timestamp.
type entryKind int

const (
	injectionEntry entryKind = iota
	internalEntry
	viewEntry
)

// An injection is an external event put into the model from outside, for
// example by an experiment driver.
type injection struct {
	model Model
	port  string
	value any
}

type tableEntry struct {
	time      timing.VTime
	kind      entryKind
	order     uint64
	sim       *Simulator
	view      *View
	injection *injection
	index     int
}

// EventTable holds the pending events of a coordinator ordered by time, then
// entry kind, then arena order. Every simulator with a finite next event time
// has exactly one entry.
type EventTable struct {
	entries      entryHeap
	modelEntries int
	injections   uint64
}

// NewEventTable creates an empty event table.
func NewEventTable() *EventTable {
	t := &EventTable{}
	heap.Init(&t.entries)

	return t
}

// Len returns the number of entries.
func (t *EventTable) Len() int {
	return t.entries.Len()
}

// HasModelEvents tells if an internal or an injected event is pending.
func (t *EventTable) HasModelEvents() bool {
	return t.modelEntries > 0
}

// Schedule places the simulator at its next event time. A simulator with an
// infinite next event time is removed from the table.
func (t *EventTable) Schedule(sim *Simulator) {
	if sim.next.IsInfinity() {
		t.Unschedule(sim)
		return
	}

	if sim.entry != nil {
		sim.entry.time = sim.next
		heap.Fix(&t.entries, sim.entry.index)

		return
	}

	sim.entry = &tableEntry{
		time:  sim.next,
		kind:  internalEntry,
		order: sim.order,
		sim:   sim,
	}
	heap.Push(&t.entries, sim.entry)
	t.modelEntries++
}

// Unschedule removes the simulator from the table.
func (t *EventTable) Unschedule(sim *Simulator) {
	if sim.entry == nil {
		return
	}

	heap.Remove(&t.entries, sim.entry.index)
	sim.entry = nil
	t.modelEntries--
}

// ScheduleView places a view at the given time.
func (t *EventTable) ScheduleView(v *View, at timing.VTime) {
	if v.entry != nil {
		v.entry.time = at
		heap.Fix(&t.entries, v.entry.index)

		return
	}

	v.entry = &tableEntry{
		time:  at,
		kind:  viewEntry,
		order: uint64(v.order),
		view:  v,
	}
	heap.Push(&t.entries, v.entry)
}

// UnscheduleView removes the view from the table.
func (t *EventTable) UnscheduleView(v *View) {
	if v.entry == nil {
		return
	}

	heap.Remove(&t.entries, v.entry.index)
	v.entry = nil
}

func (t *EventTable) scheduleInjection(at timing.VTime, inj *injection) {
	t.injections++
	heap.Push(&t.entries, &tableEntry{
		time:      at,
		kind:      injectionEntry,
		order:     t.injections,
		injection: inj,
	})
	t.modelEntries++
}

// dropInjections removes the injections that target the given models.
func (t *EventTable) dropInjections(drop func(Model) bool) {
	var dropped []*tableEntry

	for _, e := range t.entries {
		if e.kind == injectionEntry && drop(e.injection.model) {
			dropped = append(dropped, e)
		}
	}

	for _, e := range dropped {
		heap.Remove(&t.entries, e.index)
		t.modelEntries--
	}
}

func (t *EventTable) peek() *tableEntry {
	if len(t.entries) == 0 {
		return nil
	}

	return t.entries[0]
}

// NextTime returns the time of the earliest entry, or Infinity if the table
// is empty.
func (t *EventTable) NextTime() timing.VTime {
	if e := t.peek(); e != nil {
		return e.time
	}

	return timing.Infinity
}

// popBag removes the entries of the next bag. A bag contains either all the
// model entries or all the view entries that share the earliest time, in
// table order.
func (t *EventTable) popBag() []*tableEntry {
	top := t.peek()
	if top == nil {
		return nil
	}

	isView := top.kind == viewEntry

	var bag []*tableEntry

	for len(t.entries) > 0 {
		e := t.entries[0]
		if timing.Compare(e.time, top.time) != 0 || (e.kind == viewEntry) != isView {
			break
		}

		heap.Pop(&t.entries)

		switch {
		case e.sim != nil:
			e.sim.entry = nil
			t.modelEntries--
		case e.view != nil:
			e.view.entry = nil
		default:
			t.modelEntries--
		}

		bag = append(bag, e)
	}

	return bag
}

type entryHeap []*tableEntry

func (h entryHeap) Len() int {
	return len(h)
}

func (h entryHeap) Less(i, j int) bool {
	if c := timing.Compare(h[i].time, h[j].time); c != 0 {
		return c < 0
	}

	if h[i].kind != h[j].kind {
		return h[i].kind < h[j].kind
	}

	return h[i].order < h[j].order
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x interface{}) {
	e := x.(*tableEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]

	return e
}
