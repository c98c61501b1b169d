package engine

import (
	"github.com/marmos91/edge-agent/pkg/act"
	"github.com/marmos91/edge-agent/pkg/signal"
	"github.com/marmos91/edge-agent/pkg/window"
)

// conditionSignalSource implements eval.SignalSource scoped to one
// condition's own declared buffer references, since two conditions may
// read the same signal at different sampling intervals.
type conditionSignalSource struct {
	eng  *Engine
	cond *act.Condition
}

func (c *conditionSignalSource) SignalValue(signalID uint32) (signal.InspectionValue, bool) {
	ref, ok := c.cond.SampleBuffersBySignal[signal.ID(signalID)]
	if !ok {
		return signal.Undefined, false
	}
	return c.eng.latestValue(signal.ID(signalID), ref.MinIntervalMs)
}

func (c *conditionSignalSource) WindowValue(signalID uint32, fn window.Function) (signal.InspectionValue, bool) {
	refs, ok := c.cond.WindowsBySignal[signal.ID(signalID)]
	if !ok || len(refs) == 0 {
		return signal.Undefined, false
	}
	ref := refs[0]
	return c.eng.windowValue(signal.ID(signalID), ref.MinIntervalMs, ref.WindowMs, fn)
}

func (c *conditionSignalSource) IsNew(signalID uint32) bool {
	return c.eng.changedSignals[signal.ID(signalID)]
}
