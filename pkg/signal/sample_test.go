package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ===== Consumed bitmap =====

func TestSample_ConsumedBy(t *testing.T) {
	s := NewSample(42.0, 1000, 1000, 64)

	assert.False(t, s.ConsumedBy(3))
	s.MarkConsumedBy(3)
	assert.True(t, s.ConsumedBy(3))
	assert.False(t, s.ConsumedBy(4))
}

func TestSample_ZeroValueBitmapIsSafe(t *testing.T) {
	var s Sample[float64]

	// A zero-value Sample has no bitmap; reads/writes must not panic.
	assert.False(t, s.ConsumedBy(0))
	assert.NotPanics(t, func() { s.MarkConsumedBy(0) })
}
