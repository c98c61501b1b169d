// Package engine implements the Collection & Inspection Engine (CIE, spec
// component C6): the orchestrator that applies inspection matrices, routes
// incoming samples into the signal history buffer store and fixed-time
// windows, evaluates conditions, assembles payloads, and emits fetch
// requests. Every exported method is expected to run on the single
// inspection worker goroutine; Engine performs no internal locking of its
// own condition/bitmap state (the spec's concurrency model, §5).
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/marmos91/edge-agent/pkg/act"
	"github.com/marmos91/edge-agent/pkg/dtc"
	"github.com/marmos91/edge-agent/pkg/eval"
	"github.com/marmos91/edge-agent/pkg/history"
	"github.com/marmos91/edge-agent/pkg/metrics"
	"github.com/marmos91/edge-agent/pkg/queue"
	"github.com/marmos91/edge-agent/pkg/rdbm"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// MinFetchTriggerMs is MIN_FETCH_TRIGGER_MS: the minimum spacing between
// two FETCH_REQUEST(fid) events for the same fid (P5).
const MinFetchTriggerMs uint64 = 1000

// Config carries everything a new Engine needs that does not change across
// matrix swaps.
type Config struct {
	// MaxSampleMemory is MAX_SAMPLE_MEMORY (I1), the SHBS store's total
	// byte budget.
	MaxSampleMemory int64

	// ConditionWidth is MAX_NUMBER_OF_ACTIVE_CONDITION: the fixed width of
	// every buffer's subscribed-conditions bitmap and every sample's
	// consumed bitmap in the history store (Q3). The ACT condition bitmaps
	// are sized to the installed matrix instead.
	ConditionWidth uint

	// FetchConditionWidth is MAX_NUMBER_OF_ACTIVE_FETCH_CONDITION.
	FetchConditionWidth uint

	RDBM    *rdbm.Manager
	Customs eval.CustomFunctionHost

	OutQueue   *queue.Queue[*Payload]
	FetchQueue *queue.Queue[uint32]

	Metrics metrics.EngineMetrics
}

type routeKey struct {
	signalID       signal.ID
	fetchRequestID uint32
}

// Engine is the CIE orchestrator. A single goroutine (the inspection
// worker) is expected to call AddNewSignal, EvaluateConditions,
// CollectNextDataToSend, and OnChangeInspectionMatrix: mu covers only the
// swap itself, and the readers of store and table do not take it.
// SetActiveDTCs may be called from any goroutine (the DTC store and its
// generation counter are atomic).
type Engine struct {
	cfg Config

	mu    sync.Mutex // guards store/table/signalTypes/routeTable swap only
	store *history.Store
	table *act.Table

	signalTypes map[signal.ID]signal.Type
	routeTable  map[routeKey]uint64 // -> minIntervalMs

	dtcStore *dtc.Store
	// dtcGeneration counts SetActiveDTCs calls; conditionDTCGeneration
	// records, per condition slot, the generation last attached to that
	// condition's payload, so a condition only re-attaches the snapshot
	// after a genuinely new one arrives (set_active_dtcs "unless already
	// attached" rule).
	dtcGeneration          uint64
	conditionDTCGeneration []uint64

	fetchLastEmittedMs map[uint32]uint64

	changedSignals map[signal.ID]bool
}

// New constructs an Engine with no matrix installed. Call
// OnChangeInspectionMatrix before AddNewSignal/EvaluateConditions are
// useful.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:                cfg,
		signalTypes:        make(map[signal.ID]signal.Type),
		routeTable:         make(map[routeKey]uint64),
		dtcStore:           dtc.NewStore(),
		fetchLastEmittedMs: make(map[uint32]uint64),
		changedSignals:     make(map[signal.ID]bool),
	}
}

// evalCondition builds a fresh evaluator scoped to cond's own buffer
// references (each condition resolves SIGNAL/WINDOW nodes against its own
// declared buffer set) and evaluates its expression.
func (e *Engine) evalCondition(cond *act.Condition, nowMs uint64) (eval.ErrorKind, signal.InspectionValue) {
	ev := &eval.Evaluator{
		Signals: &conditionSignalSource{eng: e, cond: cond},
		Fetches: e,
		Customs: e.cfg.Customs,
		DTCs:    e,
	}
	return ev.Eval(cond.Expression, nowMs)
}

// ActiveDTCs implements eval.DTCSource.
func (e *Engine) ActiveDTCs() *dtc.Snapshot {
	return e.dtcStore.Get()
}

// RequestFetch implements eval.FetchSink, applying MIN_FETCH_TRIGGER_MS
// throttling per fetch id (P5) and pushing onto the fetch queue.
func (e *Engine) RequestFetch(fetchID uint32, nowMs uint64) bool {
	last, ok := e.fetchLastEmittedMs[fetchID]
	if ok && nowMs < last+MinFetchTriggerMs {
		return false
	}
	e.fetchLastEmittedMs[fetchID] = nowMs
	if e.table != nil {
		e.table.FetchConditions.Set(uint(fetchID) % e.table.FetchConditions.Width())
	}
	if e.cfg.FetchQueue != nil {
		e.cfg.FetchQueue.Push(fetchID)
	}
	return true
}

// SetActiveDTCs implements set_active_dtcs: it stores the latest DTC
// snapshot and bumps the generation counter so that conditions with
// IncludeActiveDTCs re-attach it on their next collected payload instead of
// reusing whatever they attached for a previous snapshot.
func (e *Engine) SetActiveDTCs(snapshot *dtc.Snapshot) {
	e.dtcStore.Set(snapshot)
	atomic.AddUint64(&e.dtcGeneration, 1)
}
