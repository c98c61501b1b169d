// Package history implements the signal history buffer store (SHBS, spec
// component C2): type-specialized ring buffers indexed by
// (signal id, sample interval), each with a nested set of fixed-time windows.
package history

import (
	"github.com/marmos91/edge-agent/pkg/bitset"
	"github.com/marmos91/edge-agent/pkg/rdbm"
	"github.com/marmos91/edge-agent/pkg/signal"
	"github.com/marmos91/edge-agent/pkg/window"
)

// Buffer is a single (signal, sample-interval) ring buffer of typed samples,
// with the windows layered over it.
type Buffer[T signal.Numeric] struct {
	SignalID      signal.ID
	SchemeSlot    uint32
	MinIntervalMs uint64
	ContainsHandles bool

	capacity int
	ring     []signal.Sample[T]
	head     int
	count    int

	lastSampleMonotonicMs uint64
	haveLastSample        bool

	subscribedConditions *bitset.BitSet
	conditionWidth       uint

	windows []*window.Window[T]

	rdbm *rdbm.Manager
}

// NewBuffer allocates a ring buffer of the given capacity. conditionWidth
// sizes every sample's consumed bitmap and the buffer's own
// subscribed-conditions bitmap (both MAX_NUMBER_OF_ACTIVE_CONDITION-wide).
func NewBuffer[T signal.Numeric](signalID signal.ID, schemeSlot uint32, capacity int, minIntervalMs uint64, containsHandles bool, conditionWidth uint, windowsMs []uint64, mgr *rdbm.Manager) *Buffer[T] {
	b := &Buffer[T]{
		SignalID:             signalID,
		SchemeSlot:           schemeSlot,
		MinIntervalMs:        minIntervalMs,
		ContainsHandles:      containsHandles,
		capacity:             capacity,
		ring:                 make([]signal.Sample[T], capacity),
		subscribedConditions: bitset.New(conditionWidth),
		conditionWidth:       conditionWidth,
		rdbm:                 mgr,
	}
	for _, wms := range windowsMs {
		b.windows = append(b.windows, window.New[T](wms))
	}
	return b
}

// Capacity returns the ring's fixed size.
func (b *Buffer[T]) Capacity() int { return b.capacity }

// Count returns the number of live samples currently held.
func (b *Buffer[T]) Count() int { return b.count }

// SubscribedConditions returns the bitmap of conditions whose expression
// reads this signal or any window over it.
func (b *Buffer[T]) SubscribedConditions() *bitset.BitSet { return b.subscribedConditions }

// Subscribe marks slot as a consumer of this buffer.
func (b *Buffer[T]) Subscribe(slot uint) { b.subscribedConditions.Set(slot) }

// Windows returns the nested fixed-time windows layered over this buffer.
func (b *Buffer[T]) Windows() []*window.Window[T] { return b.windows }

// Accept routes one incoming sample into the buffer, applying the
// subsampling threshold, ring overwrite, RDBM ref-count bookkeeping for
// handle-typed signals, and window updates. It reports whether the bitmap
// of conditions-with-input-changed should be OR'd with this buffer's
// subscribed-conditions bitmap (i.e. the sample was actually accepted and
// something observable changed).
func (b *Buffer[T]) Accept(receiveSystemMs, monotonicMs uint64, value T) (changed bool) {
	if !b.shouldAccept(monotonicMs) {
		return false
	}

	// head only points at a genuine previous occupant once the ring has
	// wrapped; before that, the slot about to be written has never held a
	// sample.
	prevIdx := b.head
	var prevValue T
	var hadPrev bool
	if b.count == b.capacity {
		prevValue = b.ring[prevIdx].Value
		hadPrev = true
	}

	if b.ContainsHandles && hadPrev && b.rdbm != nil {
		b.decreaseHandleUsage(prevValue)
	}

	newSample := signal.NewSample(value, receiveSystemMs, monotonicMs, b.conditionWidth)
	b.ring[b.head] = newSample
	b.head = (b.head + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
	}

	if b.ContainsHandles && b.rdbm != nil {
		b.increaseHandleUsage(value)
	}

	b.lastSampleMonotonicMs = monotonicMs
	b.haveLastSample = true

	windowMoved := false
	for _, w := range b.windows {
		if w.Update(value, monotonicMs) {
			windowMoved = true
		}
	}

	valueChanged := !hadPrev || !valuesEqual(prevValue, value)

	return valueChanged || windowMoved
}

func (b *Buffer[T]) shouldAccept(monotonicMs uint64) bool {
	if b.MinIntervalMs == 0 {
		return true
	}
	if !b.haveLastSample {
		return true
	}
	return monotonicMs >= b.lastSampleMonotonicMs+b.MinIntervalMs
}

// SnapshotLatest returns up to n samples, newest-first.
func (b *Buffer[T]) SnapshotLatest(n int) []signal.Sample[T] {
	if n > b.count {
		n = b.count
	}
	out := make([]signal.Sample[T], 0, n)
	idx := b.head
	for i := 0; i < n; i++ {
		idx = (idx - 1 + b.capacity) % b.capacity
		out = append(out, b.ring[idx])
	}
	return out
}

func valuesEqual[T comparable](a, b T) bool { return a == b }

// decreaseHandleUsage and increaseHandleUsage apply I3's ref-count
// bookkeeping for handle-typed signals (STRING signals, whose values are
// BufferHandles into RDBM rather than inlined bytes). Buffers with
// ContainsHandles==true are instantiated with T = uint32, the same
// underlying width as signal.Handle, so the ring can hold handles without a
// separate code path.
func (b *Buffer[T]) decreaseHandleUsage(v T) {
	b.rdbm.DecreaseUsage(b.SignalID, signal.Handle(signal.ToFloat64(v)), rdbm.StageHistoryBuffer)
}

func (b *Buffer[T]) increaseHandleUsage(v T) {
	b.rdbm.IncreaseUsage(b.SignalID, signal.Handle(signal.ToFloat64(v)), rdbm.StageHistoryBuffer)
}
