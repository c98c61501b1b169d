package engine

import (
	"errors"

	"github.com/marmos91/edge-agent/pkg/signal"
)

// ErrUnknownSignal is returned by AddNewSignal when signalID is not named
// by any condition in the currently installed matrix.
var ErrUnknownSignal = errors.New("engine: signal not present in installed inspection matrix")

// ErrNoBuffer is returned by AddNewSignal when the matrix names the signal
// but no ring buffer was allocated for (signalID, fetchRequestID).
var ErrNoBuffer = errors.New("engine: no buffer allocated for signal/fetch scope")

// AddNewSignal implements add_new_signal<T>: it routes value into the SHBS
// ring buffer for the slot derived from fetchRequestID, updating windows
// and the conditions_with_input_changed bitmap. Go has no generic methods,
// so T is erased to value any at this boundary; the concrete type is
// recovered by dispatching on the signal's declared type from the
// installed matrix.
func (e *Engine) AddNewSignal(signalID signal.ID, fetchRequestID uint32, rxSystemMs, monotonicMs uint64, value any) error {
	if e.store == nil || e.table == nil {
		return ErrUnknownSignal
	}

	typ, ok := e.signalTypes[signalID]
	if !ok {
		return ErrUnknownSignal
	}

	minIntervalMs, ok := e.routeTable[routeKey{signalID: signalID, fetchRequestID: fetchRequestID}]
	if !ok {
		minIntervalMs, ok = e.routeTable[routeKey{signalID: signalID, fetchRequestID: signal.DefaultFetchRequestID}]
	}
	if !ok {
		return ErrNoBuffer
	}

	changed, err := e.acceptTyped(typ, signalID, minIntervalMs, rxSystemMs, monotonicMs, value)
	if err != nil {
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.RecordSignalDropped(typ.String())
		}
		return err
	}

	if e.cfg.Metrics != nil {
		e.cfg.Metrics.RecordSignalAccepted(typ.String())
	}

	if changed != nil {
		e.table.InputChanged.Or(changed)
		e.changedSignals[signalID] = true
	}

	return nil
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
