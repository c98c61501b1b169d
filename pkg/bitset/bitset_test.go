package bitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== Construction =====

func TestNew(t *testing.T) {
	b := New(64)
	require.NotNil(t, b)
	assert.Equal(t, uint(64), b.Width())
	assert.True(t, b.None())
}

// ===== Set/Clear/Test =====

func TestSetClearTest(t *testing.T) {
	b := New(8)

	assert.False(t, b.Test(3))
	b.Set(3)
	assert.True(t, b.Test(3))
	assert.Equal(t, uint(1), b.Count())

	b.Clear(3)
	assert.False(t, b.Test(3))
	assert.True(t, b.None())
}

func TestClearAll(t *testing.T) {
	b := New(8)
	b.Set(0)
	b.Set(4)
	b.Set(7)
	assert.True(t, b.Any())

	b.ClearAll()
	assert.True(t, b.None())
	assert.Equal(t, uint(0), b.Count())
}

// ===== Or / Clone =====

func TestOr(t *testing.T) {
	a := New(8)
	a.Set(1)
	b := New(8)
	b.Set(2)

	a.Or(b)

	assert.True(t, a.Test(1))
	assert.True(t, a.Test(2))
	assert.Equal(t, uint(2), a.Count())
}

func TestClone(t *testing.T) {
	a := New(8)
	a.Set(5)

	clone := a.Clone()
	clone.Set(6)

	assert.True(t, a.Test(5))
	assert.False(t, a.Test(6))
	assert.True(t, clone.Test(5))
	assert.True(t, clone.Test(6))
}

// ===== EachSet =====

func TestEachSet(t *testing.T) {
	b := New(16)
	b.Set(0)
	b.Set(5)
	b.Set(15)

	var seen []uint
	b.EachSet(func(i uint) {
		seen = append(seen, i)
	})

	assert.Equal(t, []uint{0, 5, 15}, seen)
}
