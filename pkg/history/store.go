package history

import (
	"errors"

	"github.com/marmos91/edge-agent/pkg/rdbm"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// ErrMatrixAllocationFailed is returned by Allocate when the requested set
// of buffers would exceed the byte budget (I1); the caller must keep the
// previous store installed.
var ErrMatrixAllocationFailed = errors.New("history: matrix allocation would exceed sample memory budget")

// BufferSpec describes one (signal, sample-interval) ring buffer required
// by an inspection matrix. Several conditions referencing the same signal
// at the same interval collapse onto one BufferSpec (I2); Capacity is the
// max requested by any of them.
type BufferSpec struct {
	SignalID        signal.ID
	SchemeSlot      uint32
	Capacity        int
	MinIntervalMs   uint64
	ContainsHandles bool
	WindowsMs       []uint64
	BytesPerSample  int64

	// FetchRequestID scopes this buffer to one fetch context; carried
	// through from act.BufferRef so the engine can route add_new_signal
	// calls to the right buffer without widening the Store's key.
	FetchRequestID uint32
}

func (s BufferSpec) estimatedBytes() int64 {
	return s.BytesPerSample * int64(s.Capacity)
}

// key identifies a buffer by (signal, sample interval), collapsing
// duplicate requests per I2.
type key struct {
	signalID      signal.ID
	minIntervalMs uint64
}

// Store is the signal history buffer store: every ring buffer allocated for
// one inspection matrix, keyed by (signal, sample interval). Buffers for
// distinct Go element types are held in typed sub-maps since Go generics
// cannot express a single heterogeneous container; callers look up by
// signal type.
type Store struct {
	maxTotalBytes int64
	conditionWidth uint
	rdbm          *rdbm.Manager

	u8  map[key]*Buffer[uint8]
	i8  map[key]*Buffer[int8]
	u16 map[key]*Buffer[uint16]
	i16 map[key]*Buffer[int16]
	u32 map[key]*Buffer[uint32]
	i32 map[key]*Buffer[int32]
	u64 map[key]*Buffer[uint64]
	i64 map[key]*Buffer[int64]
	f32 map[key]*Buffer[float32]
	f64 map[key]*Buffer[float64]
	str map[key]*Buffer[uint32] // STRING buffers hold RDBM handles as uint32

	usedBytes int64
}

// NewStore constructs an empty store. maxTotalBytes is MAX_SAMPLE_MEMORY
// (I1); conditionWidth is MAX_NUMBER_OF_ACTIVE_CONDITION, the width of
// every per-buffer subscribed-conditions bitmap and per-sample consumed
// bitmap.
func NewStore(maxTotalBytes int64, conditionWidth uint, mgr *rdbm.Manager) *Store {
	return &Store{
		maxTotalBytes:  maxTotalBytes,
		conditionWidth: conditionWidth,
		rdbm:           mgr,
		u8:             make(map[key]*Buffer[uint8]),
		i8:             make(map[key]*Buffer[int8]),
		u16:            make(map[key]*Buffer[uint16]),
		i16:            make(map[key]*Buffer[int16]),
		u32:            make(map[key]*Buffer[uint32]),
		i32:            make(map[key]*Buffer[int32]),
		u64:            make(map[key]*Buffer[uint64]),
		i64:            make(map[key]*Buffer[int64]),
		f32:            make(map[key]*Buffer[float32]),
		f64:            make(map[key]*Buffer[float64]),
		str:            make(map[key]*Buffer[uint32]),
	}
}

// BytesInUse returns the running total of estimated bytes committed across
// every allocated buffer.
func (s *Store) BytesInUse() int64 { return s.usedBytes }

func allocate[T signal.Numeric](m map[key]*Buffer[T], specs []BufferSpec, s *Store) int64 {
	var added int64
	for _, spec := range specs {
		k := key{signalID: spec.SignalID, minIntervalMs: spec.MinIntervalMs}
		if _, exists := m[k]; exists {
			continue
		}
		m[k] = NewBuffer[T](spec.SignalID, spec.SchemeSlot, spec.Capacity, spec.MinIntervalMs, spec.ContainsHandles, s.conditionWidth, spec.WindowsMs, s.rdbm)
		added += spec.estimatedBytes()
	}
	return added
}

// Allocate builds every ring buffer named by specs, grouped by Go element
// type, enforcing I1: if the total estimated bytes would exceed
// maxTotalBytes, no buffers are committed and ErrMatrixAllocationFailed is
// returned so the caller can keep the previous store installed.
func (s *Store) Allocate(bySignalType map[signal.Type][]BufferSpec) error {
	var total int64
	for _, specs := range bySignalType {
		for _, spec := range specs {
			total += spec.estimatedBytes()
		}
	}
	if s.maxTotalBytes > 0 && s.usedBytes+total > s.maxTotalBytes {
		return ErrMatrixAllocationFailed
	}

	s.usedBytes += allocate(s.u8, bySignalType[signal.TypeU8], s)
	s.usedBytes += allocate(s.i8, bySignalType[signal.TypeI8], s)
	s.usedBytes += allocate(s.u16, bySignalType[signal.TypeU16], s)
	s.usedBytes += allocate(s.i16, bySignalType[signal.TypeI16], s)
	s.usedBytes += allocate(s.u32, bySignalType[signal.TypeU32], s)
	s.usedBytes += allocate(s.i32, bySignalType[signal.TypeI32], s)
	s.usedBytes += allocate(s.u64, bySignalType[signal.TypeU64], s)
	s.usedBytes += allocate(s.i64, bySignalType[signal.TypeI64], s)
	s.usedBytes += allocate(s.f32, bySignalType[signal.TypeF32], s)
	s.usedBytes += allocate(s.f64, bySignalType[signal.TypeF64], s)
	s.usedBytes += allocate(s.str, bySignalType[signal.TypeString], s)

	return nil
}

// BufferF64 returns the F64-typed buffer for (signalID, minIntervalMs), if
// allocated. The analogous BufferU8/BufferI8/... accessors follow the same
// shape for every other signal type.
func (s *Store) BufferF64(signalID signal.ID, minIntervalMs uint64) (*Buffer[float64], bool) {
	b, ok := s.f64[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferU8(signalID signal.ID, minIntervalMs uint64) (*Buffer[uint8], bool) {
	b, ok := s.u8[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferI8(signalID signal.ID, minIntervalMs uint64) (*Buffer[int8], bool) {
	b, ok := s.i8[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferU16(signalID signal.ID, minIntervalMs uint64) (*Buffer[uint16], bool) {
	b, ok := s.u16[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferI16(signalID signal.ID, minIntervalMs uint64) (*Buffer[int16], bool) {
	b, ok := s.i16[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferU32(signalID signal.ID, minIntervalMs uint64) (*Buffer[uint32], bool) {
	b, ok := s.u32[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferI32(signalID signal.ID, minIntervalMs uint64) (*Buffer[int32], bool) {
	b, ok := s.i32[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferU64(signalID signal.ID, minIntervalMs uint64) (*Buffer[uint64], bool) {
	b, ok := s.u64[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferI64(signalID signal.ID, minIntervalMs uint64) (*Buffer[int64], bool) {
	b, ok := s.i64[key{signalID, minIntervalMs}]
	return b, ok
}

func (s *Store) BufferF32(signalID signal.ID, minIntervalMs uint64) (*Buffer[float32], bool) {
	b, ok := s.f32[key{signalID, minIntervalMs}]
	return b, ok
}

// BufferString returns the handle ring buffer backing a STRING signal.
func (s *Store) BufferString(signalID signal.ID, minIntervalMs uint64) (*Buffer[uint32], bool) {
	b, ok := s.str[key{signalID, minIntervalMs}]
	return b, ok
}
