package engine

import (
	"errors"

	"github.com/marmos91/edge-agent/pkg/bitset"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// ErrUnsupportedValue is returned when a producer's value does not match
// the signal's declared type closely enough to convert (wrong Go kind, or
// a STRING signal fed a non-string/[]byte value).
var ErrUnsupportedValue = errors.New("engine: value does not match the signal's declared type")

// acceptTyped dispatches to the buffer accessor matching typ and calls
// Accept, returning the buffer's SubscribedConditions bitmap if the sample
// moved something observable (nil otherwise).
func (e *Engine) acceptTyped(typ signal.Type, signalID signal.ID, minIntervalMs, rxSystemMs, monotonicMs uint64, value any) (*bitset.BitSet, error) {
	if typ == signal.TypeString {
		return e.acceptString(signalID, minIntervalMs, rxSystemMs, monotonicMs, value)
	}
	if typ == signal.TypeBool {
		b, ok := value.(bool)
		if !ok {
			return nil, ErrUnsupportedValue
		}
		var v uint8
		if b {
			v = 1
		}
		buf, ok := e.store.BufferU8(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		if buf.Accept(rxSystemMs, monotonicMs, v) {
			return buf.SubscribedConditions(), nil
		}
		return nil, nil
	}

	f, ok := toFloat64(value)
	if !ok {
		return nil, ErrUnsupportedValue
	}

	switch typ {
	case signal.TypeF64:
		buf, ok := e.store.BufferF64(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, f), buf.SubscribedConditions()), nil
	case signal.TypeF32:
		buf, ok := e.store.BufferF32(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, float32(f)), buf.SubscribedConditions()), nil
	case signal.TypeU8:
		buf, ok := e.store.BufferU8(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, uint8(f)), buf.SubscribedConditions()), nil
	case signal.TypeI8:
		buf, ok := e.store.BufferI8(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, int8(f)), buf.SubscribedConditions()), nil
	case signal.TypeU16:
		buf, ok := e.store.BufferU16(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, uint16(f)), buf.SubscribedConditions()), nil
	case signal.TypeI16:
		buf, ok := e.store.BufferI16(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, int16(f)), buf.SubscribedConditions()), nil
	case signal.TypeU32:
		buf, ok := e.store.BufferU32(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, uint32(f)), buf.SubscribedConditions()), nil
	case signal.TypeI32:
		buf, ok := e.store.BufferI32(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, int32(f)), buf.SubscribedConditions()), nil
	case signal.TypeU64:
		buf, ok := e.store.BufferU64(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, uint64(f)), buf.SubscribedConditions()), nil
	case signal.TypeI64:
		buf, ok := e.store.BufferI64(signalID, minIntervalMs)
		if !ok {
			return nil, ErrNoBuffer
		}
		return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, int64(f)), buf.SubscribedConditions()), nil
	default:
		return nil, ErrUnsupportedValue
	}
}

func acceptIfChanged(changed bool, subscribed *bitset.BitSet) *bitset.BitSet {
	if !changed {
		return nil
	}
	return subscribed
}

// acceptString handles STRING signals: the producer's bytes are pushed
// into RDBM first, and the resulting handle is what actually rides the
// ring buffer.
func (e *Engine) acceptString(signalID signal.ID, minIntervalMs, rxSystemMs, monotonicMs uint64, value any) (*bitset.BitSet, error) {
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return nil, ErrUnsupportedValue
	}

	buf, ok := e.store.BufferString(signalID, minIntervalMs)
	if !ok {
		return nil, ErrNoBuffer
	}

	handle := e.cfg.RDBM.Push(signalID, data, rxSystemMs)
	if handle == signal.InvalidHandle {
		return nil, ErrNoBuffer
	}

	return acceptIfChanged(buf.Accept(rxSystemMs, monotonicMs, uint32(handle)), buf.SubscribedConditions()), nil
}
