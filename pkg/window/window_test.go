package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ===== S2: fixed-window average =====

func TestWindow_FixedWindowAverage(t *testing.T) {
	w := New[float64](1000)

	w.Update(10, 0)
	w.Update(20, 300)
	w.Update(30, 600)
	w.Update(40, 1100)

	avg, ok := w.ValueOf(LastAvg)
	assert.True(t, ok)
	assert.InDelta(t, 20.0, avg, 1e-9)

	min, ok := w.ValueOf(LastMin)
	assert.True(t, ok)
	assert.Equal(t, 10.0, min)

	max, ok := w.ValueOf(LastMax)
	assert.True(t, ok)
	assert.Equal(t, 30.0, max)
}

// ===== Empty state =====

func TestWindow_EmptyBeforeFirstSample(t *testing.T) {
	w := New[float64](1000)
	_, ok := w.ValueOf(LastAvg)
	assert.False(t, ok)
	_, ok = w.ValueOf(PrevAvg)
	assert.False(t, ok)
}

func TestWindow_PartialHasNoCompletedWindowYet(t *testing.T) {
	w := New[float64](1000)
	w.Update(5, 0)
	w.Update(7, 500)

	_, ok := w.ValueOf(LastAvg)
	assert.False(t, ok)
}

// ===== Gap larger than 2x window =====

func TestWindow_LargeGapInvalidatesLastButKeepsPrevFromCurrent(t *testing.T) {
	w := New[float64](1000)
	w.Update(1, 0)
	w.Update(2, 500)

	// Jump far beyond 2*window; current (1,2) becomes "previous", last is
	// unavailable.
	w.Update(100, 5000)

	_, ok := w.ValueOf(LastAvg)
	assert.False(t, ok)

	prevAvg, ok := w.ValueOf(PrevAvg)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, prevAvg, 1e-9)
}

// ===== Integer truncation (B3) =====

func TestWindow_IntegerAvgTruncatesTowardZero(t *testing.T) {
	w := New[int32](1000)
	w.Update(1, 0)
	w.Update(2, 100)
	w.Update(0, 1000) // rolls the window over

	avg, ok := w.ValueOf(LastAvg)
	assert.True(t, ok)
	assert.Equal(t, int32(1), avg)
}

func TestWindow_NegativeIntegerAvgTruncatesTowardZero(t *testing.T) {
	w := New[int32](1000)
	w.Update(-1, 0)
	w.Update(-2, 100)
	w.Update(0, 1000)

	avg, ok := w.ValueOf(LastAvg)
	assert.True(t, ok)
	assert.Equal(t, int32(-1), avg)
}

// ===== Sequential roll-over keeps prev chained to last =====

func TestWindow_SequentialRollover(t *testing.T) {
	w := New[float64](1000)
	w.Update(1, 0)
	w.Update(2, 1000) // completes window [0,1000) -> last = {1}
	w.Update(3, 2000) // completes window [1000,2000) -> prev = last({1}), last = {2}

	lastAvg, _ := w.ValueOf(LastAvg)
	prevAvg, _ := w.ValueOf(PrevAvg)
	assert.InDelta(t, 2.0, lastAvg, 1e-9)
	assert.InDelta(t, 1.0, prevAvg, 1e-9)
}
