package devs

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/devs/sim/hooking"
)

// TraceLogger is a hook that logs every bag and every transition at debug
// level.
type TraceLogger struct {
	logger logrus.FieldLogger
}

// NewTraceLogger creates a TraceLogger that writes into the given logger.
func NewTraceLogger(logger logrus.FieldLogger) *TraceLogger {
	return &TraceLogger{logger: logger}
}

// Func logs the hook item.
func (h *TraceLogger) Func(ctx hooking.HookCtx) {
	switch item := ctx.Item.(type) {
	case BagInfo:
		if ctx.Pos != HookPosBeforeBag {
			return
		}

		h.logger.WithFields(logrus.Fields{
			"bag":         item.ID,
			"time":        item.Time,
			"size":        item.Size,
			"observation": item.Observation,
		}).Debug("bag")
	case TransitionInfo:
		if ctx.Pos != HookPosAfterTransition {
			return
		}

		h.logger.WithFields(logrus.Fields{
			"bag":    item.Bag,
			"time":   item.Time,
			"model":  item.Model,
			"kind":   item.Kind.String(),
			"inputs": len(item.Inputs),
			"next":   item.Simulator.NextEventTime(),
		}).Debug("transition")
	}
}

// TransitionCounter is a hook that counts the transitions of every model.
type TransitionCounter struct {
	counts map[string]map[TransitionKind]int
	order  []string
}

// NewTransitionCounter creates an empty counter.
func NewTransitionCounter() *TransitionCounter {
	return &TransitionCounter{counts: make(map[string]map[TransitionKind]int)}
}

// Func counts a transition.
func (h *TransitionCounter) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosAfterTransition {
		return
	}

	item, ok := ctx.Item.(TransitionInfo)
	if !ok {
		return
	}

	byKind, found := h.counts[item.Model]
	if !found {
		byKind = make(map[TransitionKind]int)
		h.counts[item.Model] = byKind
		h.order = append(h.order, item.Model)
	}

	byKind[item.Kind]++
}

// Count returns the number of transitions of a kind taken by a model.
func (h *TransitionCounter) Count(model string, kind TransitionKind) int {
	return h.counts[model][kind]
}

// Total returns the number of transitions taken by a model.
func (h *TransitionCounter) Total(model string) int {
	total := 0
	for _, n := range h.counts[model] {
		total += n
	}

	return total
}

// Models returns the models that transitioned, in order of first
// transition.
func (h *TransitionCounter) Models() []string {
	list := make([]string, len(h.order))
	copy(list, h.order)

	return list
}
