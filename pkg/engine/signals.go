package engine

import (
	"github.com/marmos91/edge-agent/pkg/signal"
	"github.com/marmos91/edge-agent/pkg/window"
)

// latestValue resolves the newest accepted sample for (signalID,
// minIntervalMs) into an evaluator-ready InspectionValue, dispatching on
// the signal's declared type.
func (e *Engine) latestValue(signalID signal.ID, minIntervalMs uint64) (signal.InspectionValue, bool) {
	typ, ok := e.signalTypes[signalID]
	if !ok {
		return signal.Undefined, false
	}

	switch typ {
	case signal.TypeF64:
		b, ok := e.store.BufferF64(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeF32:
		b, ok := e.store.BufferF32(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeU8:
		b, ok := e.store.BufferU8(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeI8:
		b, ok := e.store.BufferI8(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeU16:
		b, ok := e.store.BufferU16(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeI16:
		b, ok := e.store.BufferI16(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeU32:
		b, ok := e.store.BufferU32(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeI32:
		b, ok := e.store.BufferI32(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeU64:
		b, ok := e.store.BufferU64(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeI64:
		b, ok := e.store.BufferI64(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return latestNumeric(b.SnapshotLatest(1))
	case signal.TypeBool:
		b, ok := e.store.BufferU8(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		samples := b.SnapshotLatest(1)
		if len(samples) == 0 {
			return signal.Undefined, false
		}
		return signal.BoolValue(samples[0].Value != 0), true
	case signal.TypeString:
		b, ok := e.store.BufferString(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		samples := b.SnapshotLatest(1)
		if len(samples) == 0 {
			return signal.Undefined, false
		}
		guard, ok := e.cfg.RDBM.Borrow(signalID, signal.Handle(samples[0].Value))
		if !ok {
			return signal.Undefined, false
		}
		str := string(guard.Bytes())
		guard.Release()
		return signal.StringValue(str), true
	default:
		return signal.Undefined, false
	}
}

func latestNumeric[T signal.Numeric](samples []signal.Sample[T]) (signal.InspectionValue, bool) {
	if len(samples) == 0 {
		return signal.Undefined, false
	}
	return signal.NumberValue(signal.ToFloat64(samples[0].Value)), true
}

// windowValue resolves a fixed-time window statistic for (signalID,
// minIntervalMs, windowMs), dispatching on the signal's declared type.
func (e *Engine) windowValue(signalID signal.ID, minIntervalMs, windowMs uint64, fn window.Function) (signal.InspectionValue, bool) {
	typ, ok := e.signalTypes[signalID]
	if !ok {
		return signal.Undefined, false
	}

	switch typ {
	case signal.TypeF64:
		b, ok := e.store.BufferF64(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeF32:
		b, ok := e.store.BufferF32(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeU8:
		b, ok := e.store.BufferU8(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeI8:
		b, ok := e.store.BufferI8(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeU16:
		b, ok := e.store.BufferU16(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeI16:
		b, ok := e.store.BufferI16(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeU32:
		b, ok := e.store.BufferU32(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeI32:
		b, ok := e.store.BufferI32(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeU64:
		b, ok := e.store.BufferU64(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	case signal.TypeI64:
		b, ok := e.store.BufferI64(signalID, minIntervalMs)
		if !ok {
			return signal.Undefined, false
		}
		return windowStat(b.Windows(), windowMs, fn)
	default:
		return signal.Undefined, false
	}
}

func windowStat[T signal.Numeric](windows []*window.Window[T], windowMs uint64, fn window.Function) (signal.InspectionValue, bool) {
	for _, w := range windows {
		if w.WindowMs() != windowMs {
			continue
		}
		v, ok := w.ValueOf(fn)
		if !ok {
			return signal.Undefined, false
		}
		return signal.NumberValue(signal.ToFloat64(v)), true
	}
	return signal.Undefined, false
}
