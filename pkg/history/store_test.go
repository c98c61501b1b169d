package history

import (
	"testing"

	"github.com/marmos91/edge-agent/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== I2: shared ring buffer per (signal, interval) =====

func TestStore_AllocateCollapsesDuplicateSpecs(t *testing.T) {
	s := NewStore(0, 8, nil)

	err := s.Allocate(map[signal.Type][]BufferSpec{
		signal.TypeF64: {
			{SignalID: 1, Capacity: 4, MinIntervalMs: 0, BytesPerSample: 8},
			{SignalID: 1, Capacity: 4, MinIntervalMs: 0, BytesPerSample: 8},
		},
	})
	require.NoError(t, err)

	b, ok := s.BufferF64(1, 0)
	require.True(t, ok)
	assert.Equal(t, 4, b.Capacity())
}

// ===== I1: allocation fails atomically over budget =====

func TestStore_AllocateFailsOverBudget(t *testing.T) {
	s := NewStore(16, 8, nil)

	err := s.Allocate(map[signal.Type][]BufferSpec{
		signal.TypeF64: {
			{SignalID: 1, Capacity: 100, MinIntervalMs: 0, BytesPerSample: 8},
		},
	})
	assert.ErrorIs(t, err, ErrMatrixAllocationFailed)

	_, ok := s.BufferF64(1, 0)
	assert.False(t, ok)
	assert.Equal(t, int64(0), s.BytesInUse())
}

func TestStore_AllocateAcrossMultipleSignalTypes(t *testing.T) {
	s := NewStore(0, 8, nil)

	err := s.Allocate(map[signal.Type][]BufferSpec{
		signal.TypeF64: {{SignalID: 1, Capacity: 2, BytesPerSample: 8}},
		signal.TypeU8:  {{SignalID: 2, Capacity: 2, BytesPerSample: 1}},
		signal.TypeString: {{SignalID: 3, Capacity: 2, ContainsHandles: true, BytesPerSample: 4}},
	})
	require.NoError(t, err)

	_, ok := s.BufferF64(1, 0)
	assert.True(t, ok)
	_, ok = s.BufferU8(2, 0)
	assert.True(t, ok)
	_, ok = s.BufferString(3, 0)
	assert.True(t, ok)
}
