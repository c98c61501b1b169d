// Package bitset provides the fixed-width condition and fetch-condition
// bitmaps used throughout the active condition table and the inspection
// engine: conditions-with-input-changed, conditions-currently-true,
// conditions-triggered-waiting-published, and per-buffer subscribed/consumed
// bitmaps.
//
// It is a thin wrapper over github.com/bits-and-blooms/bitset
// that fixes the width at construction time, matching the spec's
// BitSet<N_conditions> and BitSet<MAX_NUMBER_OF_ACTIVE_FETCH_CONDITION>
// types.
package bitset

import bbbitset "github.com/bits-and-blooms/bitset"

// BitSet is a fixed-width bitmap of condition or fetch-condition slots.
type BitSet struct {
	bits  *bbbitset.BitSet
	width uint
}

// New creates a BitSet with the given fixed width.
func New(width uint) *BitSet {
	return &BitSet{
		bits:  bbbitset.New(width),
		width: width,
	}
}

// Width returns the number of addressable slots.
func (b *BitSet) Width() uint {
	return b.width
}

// Set marks slot i as set.
func (b *BitSet) Set(i uint) {
	b.bits.Set(i)
}

// Clear marks slot i as unset.
func (b *BitSet) Clear(i uint) {
	b.bits.Clear(i)
}

// Test reports whether slot i is set.
func (b *BitSet) Test(i uint) bool {
	return b.bits.Test(i)
}

// ClearAll unsets every slot.
func (b *BitSet) ClearAll() {
	b.bits.ClearAll()
}

// Any reports whether at least one slot is set.
func (b *BitSet) Any() bool {
	return b.bits.Any()
}

// None reports whether no slot is set.
func (b *BitSet) None() bool {
	return b.bits.None()
}

// Count returns the number of set slots.
func (b *BitSet) Count() uint {
	return b.bits.Count()
}

// Or sets every slot that is set in other into b, in place.
func (b *BitSet) Or(other *BitSet) {
	b.bits.InPlaceUnion(other.bits)
}

// Clone returns an independent copy of b.
func (b *BitSet) Clone() *BitSet {
	return &BitSet{bits: b.bits.Clone(), width: b.width}
}

// NextSet returns the index of the next set slot at or after i, and true,
// or (0, false) if none remain.
func (b *BitSet) NextSet(i uint) (uint, bool) {
	return b.bits.NextSet(i)
}

// EachSet calls fn for every set slot in ascending order.
func (b *BitSet) EachSet(fn func(i uint)) {
	for i, ok := b.bits.NextSet(0); ok; i, ok = b.bits.NextSet(i + 1) {
		fn(i)
	}
}
