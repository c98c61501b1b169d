package engine

import (
	"github.com/marmos91/edge-agent/pkg/act"
	"github.com/marmos91/edge-agent/pkg/history"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// bytesPerSample approximates the on-ring footprint of one Sample[T] for a
// given signal type, for I1 accounting.
func bytesPerSample(t signal.Type) int64 {
	switch t {
	case signal.TypeU8, signal.TypeI8, signal.TypeBool:
		return 9
	case signal.TypeU16, signal.TypeI16:
		return 10
	case signal.TypeU32, signal.TypeI32, signal.TypeF32:
		return 12
	case signal.TypeString:
		return 12 // handle (uint32) plus bookkeeping
	default:
		return 16 // U64/I64/F64
	}
}

type bufferAccum struct {
	signalType signal.Type
	capacity   int
	schemeSlot uint32
	fetchReqID uint32
	windowsMs  map[uint64]struct{}
}

// buildBufferSpecs walks every condition's declared buffer references and
// collapses them per (signal, interval, fetch scope), per I2: several
// conditions referencing the same signal at the same sampling interval
// share one ring buffer, sized to the largest requested capacity and
// carrying the union of every requested window width.
func buildBufferSpecs(matrix *act.InspectionMatrix) map[signal.Type][]history.BufferSpec {
	type bufKey struct {
		signalID       signal.ID
		minIntervalMs  uint64
		fetchRequestID uint32
	}
	accum := make(map[bufKey]*bufferAccum)

	for slot, cond := range matrix.Conditions {
		for signalID, ref := range cond.SampleBuffersBySignal {
			k := bufKey{signalID: signalID, minIntervalMs: ref.MinIntervalMs, fetchRequestID: ref.FetchRequestID}
			a, ok := accum[k]
			if !ok {
				a = &bufferAccum{
					signalType: ref.SignalType,
					schemeSlot: uint32(slot),
					fetchReqID: ref.FetchRequestID,
					windowsMs:  make(map[uint64]struct{}),
				}
				accum[k] = a
			}
			if ref.Capacity > a.capacity {
				a.capacity = ref.Capacity
			}
		}
		for signalID, refs := range cond.WindowsBySignal {
			for _, wr := range refs {
				k := bufKey{signalID: signalID, minIntervalMs: wr.MinIntervalMs, fetchRequestID: wr.FetchRequestID}
				a, ok := accum[k]
				if !ok {
					a = &bufferAccum{
						signalType: wr.SignalType,
						schemeSlot: uint32(slot),
						fetchReqID: wr.FetchRequestID,
						windowsMs:  make(map[uint64]struct{}),
					}
					accum[k] = a
				}
				if wr.Capacity > a.capacity {
					a.capacity = wr.Capacity
				}
				a.windowsMs[wr.WindowMs] = struct{}{}
			}
		}
	}

	out := make(map[signal.Type][]history.BufferSpec)
	for k, a := range accum {
		windowsMs := make([]uint64, 0, len(a.windowsMs))
		for wms := range a.windowsMs {
			windowsMs = append(windowsMs, wms)
		}
		capacity := a.capacity
		if capacity <= 0 {
			capacity = 1
		}
		out[a.signalType] = append(out[a.signalType], history.BufferSpec{
			SignalID:        k.signalID,
			SchemeSlot:      a.schemeSlot,
			Capacity:        capacity,
			MinIntervalMs:   k.minIntervalMs,
			ContainsHandles: a.signalType == signal.TypeString,
			WindowsMs:       windowsMs,
			BytesPerSample:  bytesPerSample(a.signalType),
			FetchRequestID:  a.fetchReqID,
		})
	}
	return out
}

// OnChangeInspectionMatrix performs the atomic matrix swap: allocate a new
// SHBS store sized to matrix, seed the new ACT table, replace the installed
// store and table, and then pre-evaluate every is_static condition once
// against them. On allocation failure the previous matrix is left fully intact
// and ErrMatrixAllocationFailed is surfaced.
func (e *Engine) OnChangeInspectionMatrix(matrix *act.InspectionMatrix, nowMs uint64) error {
	newStore := history.NewStore(e.cfg.MaxSampleMemory, e.cfg.ConditionWidth, e.cfg.RDBM)
	if err := newStore.Allocate(buildBufferSpecs(matrix)); err != nil {
		if e.cfg.Metrics != nil {
			e.cfg.Metrics.RecordMatrixSwap(false)
		}
		return err
	}

	subscribeBuffers(newStore, matrix)

	newSignalTypes := make(map[signal.ID]signal.Type)
	newRouteTable := make(map[routeKey]uint64)
	for _, cond := range matrix.Conditions {
		for signalID, ref := range cond.SampleBuffersBySignal {
			newSignalTypes[signalID] = ref.SignalType
			newRouteTable[routeKey{signalID: signalID, fetchRequestID: ref.FetchRequestID}] = ref.MinIntervalMs
		}
		for signalID, refs := range cond.WindowsBySignal {
			for _, wr := range refs {
				newSignalTypes[signalID] = wr.SignalType
				newRouteTable[routeKey{signalID: signalID, fetchRequestID: wr.FetchRequestID}] = wr.MinIntervalMs
			}
		}
	}

	newTable := act.NewTable(matrix, e.cfg.FetchConditionWidth)

	e.mu.Lock()
	e.store = newStore
	e.table = newTable
	e.signalTypes = newSignalTypes
	e.routeTable = newRouteTable
	e.conditionDTCGeneration = make([]uint64, matrix.ConditionWidth())
	e.mu.Unlock()

	if e.cfg.Metrics != nil {
		e.cfg.Metrics.RecordMatrixSwap(true)
		e.cfg.Metrics.SetRDBMBytesInUse(newStore.BytesInUse())
	}

	// Pre-evaluate every static condition once: its result never changes
	// on its own, so evaluate_conditions would otherwise never visit it
	// (it is never marked input-changed by a signal accept).
	for slot, cond := range matrix.Conditions {
		if !cond.IsStatic {
			continue
		}
		errKind, v := e.evalCondition(cond, nowMs)
		e.applyEvaluationResult(uint(slot), cond, errKind, v, nowMs)
	}

	return nil
}
