package engine

import (
	"github.com/marmos91/edge-agent/pkg/act"
	"github.com/marmos91/edge-agent/pkg/history"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// subscribeBuffers marks every condition slot as a subscriber of every
// buffer its expression reads (directly or through a window), so that a
// later Buffer.Accept can OR the buffer's SubscribedConditions bitmap into
// conditions_with_input_changed.
func subscribeBuffers(store *history.Store, matrix *act.InspectionMatrix) {
	for slot, cond := range matrix.Conditions {
		for signalID, ref := range cond.SampleBuffersBySignal {
			subscribeOne(store, signalID, ref.SignalType, ref.MinIntervalMs, uint(slot))
		}
		for signalID, refs := range cond.WindowsBySignal {
			for _, wr := range refs {
				subscribeOne(store, signalID, wr.SignalType, wr.MinIntervalMs, uint(slot))
			}
		}
	}
}

func subscribeOne(store *history.Store, signalID signal.ID, typ signal.Type, minIntervalMs uint64, slot uint) {
	switch typ {
	case signal.TypeF64:
		if b, ok := store.BufferF64(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeF32:
		if b, ok := store.BufferF32(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeU8, signal.TypeBool:
		if b, ok := store.BufferU8(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeI8:
		if b, ok := store.BufferI8(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeU16:
		if b, ok := store.BufferU16(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeI16:
		if b, ok := store.BufferI16(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeU32:
		if b, ok := store.BufferU32(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeI32:
		if b, ok := store.BufferI32(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeU64:
		if b, ok := store.BufferU64(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeI64:
		if b, ok := store.BufferI64(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	case signal.TypeString:
		if b, ok := store.BufferString(signalID, minIntervalMs); ok {
			b.Subscribe(slot)
		}
	}
}
