package act

import (
	"sync/atomic"

	"github.com/marmos91/edge-agent/pkg/bitset"
)

// Table holds the currently installed InspectionMatrix plus the three
// condition bitmaps and the fetch-condition bitmap the inspection worker
// mutates. All reads and writes are expected to happen on the single
// inspection worker thread; Table itself does no locking.
type Table struct {
	Matrix *InspectionMatrix

	// InputChanged is set for every condition whose expression reads a
	// signal or window that changed on the latest accept pass.
	InputChanged *bitset.BitSet

	// CurrentlyTrue is set for every condition whose last evaluation
	// produced Bool(true).
	CurrentlyTrue *bitset.BitSet

	// TriggeredWaitingPublished is set for every condition awaiting
	// payload assembly.
	TriggeredWaitingPublished *bitset.BitSet

	// FetchConditions is set per distinct fetch id referenced by an
	// expression's FETCH_REQUEST nodes; its width is
	// MAX_NUMBER_OF_ACTIVE_FETCH_CONDITION, independent of the condition
	// bitmaps' width.
	FetchConditions *bitset.BitSet

	nextCollectIndex int
}

// NewTable installs matrix with fresh, zeroed bitmaps sized to it.
func NewTable(matrix *InspectionMatrix, fetchConditionWidth uint) *Table {
	width := matrix.ConditionWidth()
	return &Table{
		Matrix:                    matrix,
		InputChanged:              bitset.New(width),
		CurrentlyTrue:             bitset.New(width),
		TriggeredWaitingPublished: bitset.New(width),
		FetchConditions:           bitset.New(fetchConditionWidth),
	}
}

// NextCollectIndex returns the condition slot collect_next_data_to_send
// should resume scanning from, then advances it round-robin.
func (t *Table) NextCollectIndex() int {
	width := len(t.Matrix.Conditions)
	if width == 0 {
		return 0
	}
	idx := t.nextCollectIndex % width
	t.nextCollectIndex = (t.nextCollectIndex + 1) % width
	return idx
}

// eventIDCounter is the monotonically increasing per-process counter
// forming the upper 8 bits of every generated event id.
var eventIDCounter uint32

// NextEventID derives a 32-bit event id: the lower 24 bits are
// triggerTimeMs truncated to 24 bits, the upper 8 bits are a
// monotonically increasing per-process counter (wrapping at 256).
func NextEventID(triggerTimeMs uint64) uint32 {
	counter := atomic.AddUint32(&eventIDCounter, 1) & 0xFF
	return (counter << 24) | uint32(triggerTimeMs&0xFFFFFF)
}
