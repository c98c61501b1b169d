// Package rdbm implements the raw data buffer manager (RDBM, spec component
// C1): an arena for variable-size payloads (STRING signal values, opaque
// frames) that lets the rest of the engine move such values around by a
// 32-bit handle instead of copying bytes.
package rdbm

import (
	"container/list"
	"sync"

	"github.com/marmos91/edge-agent/pkg/bufpool"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// defaultPageSize is the fallback used when the OS page size cannot be
// determined.
const defaultPageSize = 4096

// Stage identifies a lifecycle stage in which a handle's bytes may be
// referenced. Bytes are eligible for reclamation only when every stage's
// refcount for a handle is zero.
type Stage int

const (
	StageHistoryBuffer Stage = iota
	StageSelectedForUpload
	StageUploading
	StageCollectedNotInHistory
	numStages
)

// Limits bounds how much an individual signal may consume in the arena.
type Limits struct {
	// MaxBytesPerSignal caps total bytes held for one signal id across all
	// its handles. Zero means unbounded (subject to the global byte cap).
	MaxBytesPerSignal int64

	// MaxSamplesPerSignal caps the number of live handles for one signal
	// id. Zero means unbounded (subject to the global byte cap).
	MaxSamplesPerSignal int

	// MaxBytesPerSample rejects any single push larger than this. Zero
	// means unbounded.
	MaxBytesPerSample int64
}

type refKey struct {
	signalID signal.ID
	handle   signal.Handle
}

type entry struct {
	key         refKey
	bytes       []byte
	rxSystemMs  uint64
	refcounts   [numStages]int32
	borrowCount int32
	elem        *list.Element
}

func (e *entry) reclaimable() bool {
	if e.borrowCount != 0 {
		return false
	}
	for _, c := range e.refcounts {
		if c != 0 {
			return false
		}
	}
	return true
}

// Manager is the concurrency-safe arena. It is internally locked per
// instance (the spec's "per-signal partition" locking is collapsed to a
// single mutex; contention is low since only STRING-typed signals and
// fetched blobs ever call into RDBM).
type Manager struct {
	mu sync.Mutex

	entries map[refKey]*entry
	order   *list.List // insertion order, front = oldest, for lazy reclamation

	signalBytes map[signal.ID]int64
	signalCount map[signal.ID]int
	nextHandle  map[signal.ID]signal.Handle

	totalBytes    int64
	maxTotalBytes int64

	defaultLimits Limits
	perSignal     map[signal.ID]Limits

	pool *bufpool.Pool

	scanBudget int
}

// Config configures a Manager.
type Config struct {
	// MaxTotalBytes is the global byte budget across every signal's
	// buffers (I1's MAX_SAMPLE_MEMORY applies to SHBS ring capacity; this
	// is RDBM's own, separate arena budget for the handle payloads those
	// rings reference).
	MaxTotalBytes int64

	// DefaultLimits apply to any signal without a per-signal override.
	DefaultLimits Limits

	// Pool is the byte-slice pool backing allocations. If nil, a
	// dedicated pool with default tiers is created.
	Pool *bufpool.Pool
}

// New creates a Manager.
func New(cfg Config) *Manager {
	pool := cfg.Pool
	if pool == nil {
		pool = bufpool.NewPool(nil)
	}

	scanBudget := pageSize() / 64
	if scanBudget < 16 {
		scanBudget = 16
	}

	return &Manager{
		entries:       make(map[refKey]*entry),
		order:         list.New(),
		signalBytes:   make(map[signal.ID]int64),
		signalCount:   make(map[signal.ID]int),
		nextHandle:    make(map[signal.ID]signal.Handle),
		maxTotalBytes: cfg.MaxTotalBytes,
		defaultLimits: cfg.DefaultLimits,
		perSignal:     make(map[signal.ID]Limits),
		pool:          pool,
		scanBudget:    scanBudget,
	}
}

// SetLimits installs a per-signal override, replacing the default limits
// for that signal id.
func (m *Manager) SetLimits(id signal.ID, limits Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perSignal[id] = limits
}

func (m *Manager) limitsFor(id signal.ID) Limits {
	if l, ok := m.perSignal[id]; ok {
		return l
	}
	return m.defaultLimits
}

// Push stores bytes under a freshly allocated handle scoped to signalID.
// It returns signal.InvalidHandle if the payload, per-signal, or global
// quota cannot be satisfied even after reclaiming zero-refcount entries.
func (m *Manager) Push(signalID signal.ID, data []byte, rxSystemMs uint64) signal.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	limits := m.limitsFor(signalID)
	size := int64(len(data))

	if limits.MaxBytesPerSample > 0 && size > limits.MaxBytesPerSample {
		return signal.InvalidHandle
	}
	if limits.MaxSamplesPerSignal > 0 && m.signalCount[signalID] >= limits.MaxSamplesPerSignal {
		if !m.reclaimForSignal(signalID, 1) {
			return signal.InvalidHandle
		}
	}
	for limits.MaxBytesPerSignal > 0 && m.signalBytes[signalID]+size > limits.MaxBytesPerSignal {
		if !m.reclaimForSignal(signalID, 1) {
			return signal.InvalidHandle
		}
	}
	if m.maxTotalBytes > 0 && m.totalBytes+size > m.maxTotalBytes {
		if !m.reclaimBytes(m.totalBytes + size - m.maxTotalBytes) {
			return signal.InvalidHandle
		}
	}

	buf := m.pool.Get(len(data))
	copy(buf, data)

	handle := m.nextHandle[signalID] + 1
	m.nextHandle[signalID] = handle

	e := &entry{
		key:        refKey{signalID: signalID, handle: handle},
		bytes:      buf,
		rxSystemMs: rxSystemMs,
	}
	e.elem = m.order.PushBack(e)
	m.entries[e.key] = e

	m.totalBytes += size
	m.signalBytes[signalID] += size
	m.signalCount[signalID]++

	return handle
}

// IncreaseUsage increments the refcount for handle at the given stage.
func (m *Manager) IncreaseUsage(signalID signal.ID, handle signal.Handle, stage Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[refKey{signalID, handle}]; ok {
		e.refcounts[stage]++
	}
}

// DecreaseUsage decrements the refcount for handle at the given stage. It
// is a no-op (never goes negative) if already zero or the handle is
// unknown (already reclaimed).
func (m *Manager) DecreaseUsage(signalID signal.ID, handle signal.Handle, stage Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[refKey{signalID, handle}]
	if !ok {
		return
	}
	if e.refcounts[stage] > 0 {
		e.refcounts[stage]--
	}
}

// ReadGuard is a scoped, pinned view of a handle's bytes. The bytes remain
// valid and are excluded from reclamation until Release is called.
type ReadGuard struct {
	mgr   *Manager
	key   refKey
	bytes []byte
}

// Bytes returns the pinned byte view. The slice must not be retained past
// Release.
func (g *ReadGuard) Bytes() []byte {
	return g.bytes
}

// Release unpins the bytes, making the handle eligible for reclamation
// again once all other refcounts are zero.
func (g *ReadGuard) Release() {
	g.mgr.mu.Lock()
	defer g.mgr.mu.Unlock()
	if e, ok := g.mgr.entries[g.key]; ok && e.borrowCount > 0 {
		e.borrowCount--
	}
}

// Borrow returns a pinned read view of handle's bytes, or ok=false if the
// handle is unknown (reclaimed or never pushed).
func (m *Manager) Borrow(signalID signal.ID, handle signal.Handle) (guard *ReadGuard, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := refKey{signalID, handle}
	e, found := m.entries[key]
	if !found {
		return nil, false
	}
	e.borrowCount++
	return &ReadGuard{mgr: m, key: key, bytes: e.bytes}, true
}

// reclaimBytes evicts oldest zero-refcount entries until at least need
// bytes have been freed, scanning at most scanBudget entries. It returns
// true if enough space was freed.
func (m *Manager) reclaimBytes(need int64) bool {
	var freed int64
	scanned := 0

	elem := m.order.Front()
	for elem != nil && freed < need && scanned < m.scanBudget {
		next := elem.Next()
		e := elem.Value.(*entry)
		scanned++

		if e.reclaimable() {
			freed += int64(len(e.bytes))
			m.evict(e)
		}
		elem = next
	}

	return freed >= need
}

// reclaimForSignal evicts up to count oldest zero-refcount entries
// belonging to signalID.
func (m *Manager) reclaimForSignal(signalID signal.ID, count int) bool {
	evicted := 0
	scanned := 0

	elem := m.order.Front()
	for elem != nil && evicted < count && scanned < m.scanBudget {
		next := elem.Next()
		e := elem.Value.(*entry)
		if e.key.signalID == signalID {
			scanned++
			if e.reclaimable() {
				m.evict(e)
				evicted++
			}
		}
		elem = next
	}

	return evicted >= count
}

func (m *Manager) evict(e *entry) {
	m.order.Remove(e.elem)
	delete(m.entries, e.key)
	m.totalBytes -= int64(len(e.bytes))
	m.signalBytes[e.key.signalID] -= int64(len(e.bytes))
	m.signalCount[e.key.signalID]--
	m.pool.Put(e.bytes)
}

// BytesInUse returns the current total bytes held across all handles.
func (m *Manager) BytesInUse() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes
}
