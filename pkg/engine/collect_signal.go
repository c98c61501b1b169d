package engine

import (
	"github.com/marmos91/edge-agent/pkg/history"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// collectSignal dispatches to the buffer accessor matching typ and
// gathers up to size newest samples, applying I4 (only strictly newer
// than afterSystemMs) and, in send-once-per-condition mode, I5 (skip
// samples this condition slot has already consumed).
func (e *Engine) collectSignal(typ signal.Type, signalID signal.ID, minIntervalMs uint64, slot uint, size int, afterSystemMs uint64, sendOnce bool) ([]CollectedSignal, uint64) {
	switch typ {
	case signal.TypeF64:
		b, ok := e.store.BufferF64(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeF32:
		b, ok := e.store.BufferF32(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeU8:
		b, ok := e.store.BufferU8(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeI8:
		b, ok := e.store.BufferI8(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeU16:
		b, ok := e.store.BufferU16(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeI16:
		b, ok := e.store.BufferI16(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeU32:
		b, ok := e.store.BufferU32(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeI32:
		b, ok := e.store.BufferI32(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeU64:
		b, ok := e.store.BufferU64(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeI64:
		b, ok := e.store.BufferI64(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		return collectNumeric(b, signalID, typ, slot, size, afterSystemMs, sendOnce)
	case signal.TypeBool:
		b, ok := e.store.BufferU8(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		out, maxSys := collectRaw(b, slot, size, afterSystemMs, sendOnce)
		signals := make([]CollectedSignal, len(out))
		for i, r := range out {
			signals[i] = CollectedSignal{SignalID: signalID, SystemTimeMs: r.systemMs, Type: typ, Value: signal.BoolValue(r.value != 0)}
		}
		return signals, maxSys
	case signal.TypeString:
		b, ok := e.store.BufferString(signalID, minIntervalMs)
		if !ok {
			return nil, 0
		}
		out, maxSys := collectRaw(b, slot, size, afterSystemMs, sendOnce)
		signals := make([]CollectedSignal, len(out))
		for i, r := range out {
			signals[i] = CollectedSignal{SignalID: signalID, SystemTimeMs: r.systemMs, Type: typ, Handle: signal.Handle(r.value)}
		}
		return signals, maxSys
	default:
		return nil, 0
	}
}

func collectNumeric[T signal.Numeric](b *history.Buffer[T], signalID signal.ID, typ signal.Type, slot uint, size int, afterSystemMs uint64, sendOnce bool) ([]CollectedSignal, uint64) {
	out, maxSys := collectRaw(b, slot, size, afterSystemMs, sendOnce)
	signals := make([]CollectedSignal, len(out))
	for i, r := range out {
		signals[i] = CollectedSignal{SignalID: signalID, SystemTimeMs: r.systemMs, Type: typ, Value: signal.NumberValue(r.value)}
	}
	return signals, maxSys
}

type rawSample struct {
	value    float64
	systemMs uint64
}

func collectRaw[T signal.Numeric](b *history.Buffer[T], slot uint, size int, afterSystemMs uint64, sendOnce bool) ([]rawSample, uint64) {
	samples := b.SnapshotLatest(size)
	var out []rawSample
	var maxSys uint64
	for _, s := range samples {
		if s.SystemTimeMs <= afterSystemMs {
			continue
		}
		if sendOnce && s.ConsumedBy(slot) {
			continue
		}
		out = append(out, rawSample{value: signal.ToFloat64(s.Value), systemMs: s.SystemTimeMs})
		if s.SystemTimeMs > maxSys {
			maxSys = s.SystemTimeMs
		}
		// Sample.ConsumedBitmap is a pointer, so marking this copy (held by
		// the snapshot slice) reaches back into the ring slot it came from.
		// Every sample actually collected here must be marked (I5), not
		// just the newest one.
		if sendOnce {
			s.MarkConsumedBy(slot)
		}
	}
	return out, maxSys
}
