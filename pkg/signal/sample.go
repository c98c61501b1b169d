package signal

import "github.com/marmos91/edge-agent/pkg/bitset"

// Sample is a single typed observation of a signal, carrying the
// per-condition consumed bitmap used by send-once-per-condition delivery.
type Sample[T any] struct {
	Value T

	// SystemTimeMs is the wall-clock receive time, used for I4/I5
	// (send-once-per-condition gating).
	SystemTimeMs uint64

	// MonotonicMs is the monotonic receive time, used for subsampling and
	// ring buffer ordering.
	MonotonicMs uint64

	// ConsumedBitmap records which active conditions have already consumed
	// this sample in send-once-per-condition mode.
	ConsumedBitmap *bitset.BitSet
}

// NewSample constructs a Sample with a fresh consumed bitmap of the given
// width (MAX_NUMBER_OF_ACTIVE_CONDITION).
func NewSample[T any](value T, systemTimeMs, monotonicMs uint64, conditionWidth uint) Sample[T] {
	return Sample[T]{
		Value:          value,
		SystemTimeMs:   systemTimeMs,
		MonotonicMs:    monotonicMs,
		ConsumedBitmap: bitset.New(conditionWidth),
	}
}

// ConsumedBy reports whether condition slot has already consumed this
// sample.
func (s Sample[T]) ConsumedBy(slot uint) bool {
	if s.ConsumedBitmap == nil {
		return false
	}
	return s.ConsumedBitmap.Test(slot)
}

// MarkConsumedBy sets the consumed bit for condition slot (I5).
func (s Sample[T]) MarkConsumedBy(slot uint) {
	if s.ConsumedBitmap == nil {
		return
	}
	s.ConsumedBitmap.Set(slot)
}
