package eval

import (
	"github.com/marmos91/edge-agent/pkg/dtc"
	"github.com/marmos91/edge-agent/pkg/signal"
	"github.com/marmos91/edge-agent/pkg/window"
)

// SignalSource resolves SIGNAL, WINDOW, and IS_NEW nodes against whatever
// currently holds the signal history (the engine's SHBS-backed store in
// production, a fixture map in tests).
type SignalSource interface {
	// SignalValue returns the latest value of signalID, or ok=false if no
	// sample has ever been accepted for it.
	SignalValue(signalID uint32) (signal.InspectionValue, bool)

	// WindowValue returns the requested fixed-time window statistic for
	// signalID, or ok=false if unavailable (no window configured, or the
	// window has not completed).
	WindowValue(signalID uint32, fn window.Function) (signal.InspectionValue, bool)

	// IsNew reports whether signalID's value changed on the current
	// evaluation pass (the conditions-with-input-changed bit for its
	// buffer).
	IsNew(signalID uint32) bool
}

// FetchSink receives FETCH_REQUEST(fid) events. RequestFetch is expected to
// apply the per-fid throttle (at most once per MIN_FETCH_TRIGGER_MS) itself
// and report whether it actually enqueued this call.
type FetchSink interface {
	RequestFetch(fetchID uint32, nowMs uint64) (enqueued bool)
}

// CustomFunctionCallbacks is the three-callback shape a registered custom
// function exposes to the evaluator.
type CustomFunctionCallbacks interface {
	// Invoke evaluates one call, given the already-evaluated argument
	// values.
	Invoke(invocationID uint64, args []signal.InspectionValue) (ErrorKind, signal.InspectionValue)

	// ConditionEnd is called after a triggered condition has been
	// assembled into a payload, letting the function append signals of
	// its own (e.g. parsed sub-fields) via the out slice.
	ConditionEnd(invocationID uint64, collectedSignalIDs []uint32, tsMs uint64, out *[]signal.InspectionValue)

	// Cleanup is called once when the owning AST node is retired (matrix
	// swap drops the condition referencing it).
	Cleanup(invocationID uint64)
}

// CustomFunctionHost looks up a registered custom function by name.
type CustomFunctionHost interface {
	Lookup(name string) (CustomFunctionCallbacks, bool)
}

// DTCSource supplies the current active-DTC snapshot for ACTIVE_DTC_QUERY.
type DTCSource interface {
	ActiveDTCs() *dtc.Snapshot
}
