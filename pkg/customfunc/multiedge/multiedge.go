// Package multiedge implements CustomFunctionMultiRisingEdgeTrigger: a
// built-in custom function that wraps N boolean sub-conditions and fires
// once when all of them have transitioned from false to true within a
// tolerance window of each other. It re-arms only after every
// sub-condition has gone false again.
package multiedge

import (
	"sync"

	"github.com/marmos91/edge-agent/pkg/eval"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// Trigger is registered under a name (conventionally
// "multiRisingEdgeTrigger") with a customfunc.Host.
type Trigger struct {
	// N is the expected number of sub-condition arguments.
	N int

	// ToleranceMs bounds how far apart the sub-conditions' rising edges
	// may land and still count as one simultaneous trigger.
	ToleranceMs uint64

	// Now supplies the current monotonic time; defaults to a zero clock
	// if nil (tests may inject a fixed or stepped clock).
	Now func() uint64

	mu     sync.Mutex
	states map[uint64]*invocationState
}

type invocationState struct {
	prevTrue []bool
	edgeAtMs []uint64
	armed    bool
}

// New constructs a Trigger expecting n sub-conditions within
// toleranceMs of each other.
func New(n int, toleranceMs uint64) *Trigger {
	return &Trigger{
		N:           n,
		ToleranceMs: toleranceMs,
		states:      make(map[uint64]*invocationState),
	}
}

func (t *Trigger) now() uint64 {
	if t.Now == nil {
		return 0
	}
	return t.Now()
}

// Invoke implements eval.CustomFunctionCallbacks.
func (t *Trigger) Invoke(invocationID uint64, args []signal.InspectionValue) (eval.ErrorKind, signal.InspectionValue) {
	if len(args) != t.N {
		return eval.ErrTypeMismatch, signal.Undefined
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[invocationID]
	if !ok {
		st = &invocationState{
			prevTrue: make([]bool, t.N),
			edgeAtMs: make([]uint64, t.N),
			armed:    true,
		}
		t.states[invocationID] = st
	}

	now := t.now()
	allFalse := true
	for i, a := range args {
		if a.Kind != signal.KindBool {
			return eval.ErrTypeMismatch, signal.Undefined
		}
		cur := a.Bool
		if cur && !st.prevTrue[i] {
			st.edgeAtMs[i] = now
		}
		st.prevTrue[i] = cur
		if cur {
			allFalse = false
		}
	}
	if allFalse {
		st.armed = true
	}

	if !st.armed {
		return eval.Success, signal.BoolValue(false)
	}

	for _, cur := range st.prevTrue {
		if !cur {
			return eval.Success, signal.BoolValue(false)
		}
	}

	minT, maxT := st.edgeAtMs[0], st.edgeAtMs[0]
	for _, e := range st.edgeAtMs[1:] {
		if e < minT {
			minT = e
		}
		if e > maxT {
			maxT = e
		}
	}

	if maxT-minT > t.ToleranceMs {
		return eval.Success, signal.BoolValue(false)
	}

	st.armed = false
	return eval.Success, signal.BoolValue(true)
}

// ConditionEnd is a no-op: this built-in emits no follow-up signals.
func (t *Trigger) ConditionEnd(uint64, []uint32, uint64, *[]signal.InspectionValue) {}

// Cleanup discards the invocation's tracked state.
func (t *Trigger) Cleanup(invocationID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, invocationID)
}
