package engine

import (
	"sync/atomic"

	"github.com/marmos91/edge-agent/pkg/act"
	"github.com/marmos91/edge-agent/pkg/dtc"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// CollectedSignal is one (id, timestamp, value-or-handle, type) entry in an
// assembled Payload. STRING signals carry a Handle into RDBM rather than
// an inlined value, matching how they ride the SHBS ring buffer.
type CollectedSignal struct {
	SignalID     signal.ID
	SystemTimeMs uint64
	Type         signal.Type
	Value        signal.InspectionValue
	Handle       signal.Handle
}

// Payload is one assembled, ready-to-send collection, per spec §4.5.
type Payload struct {
	SchemeID      uint32
	EventID       uint32
	TriggerTimeMs uint64
	Signals       []CollectedSignal
	ActiveDTCs    *dtc.Snapshot
}

// idleWaitMs is the fallback wait_ms reported when no finer-grained timer
// (window boundary, fetch schedule) is tracked for the next wake-up.
const idleWaitMs = uint64(1000)

// CollectNextDataToSend implements collect_next_data_to_send: round-robin
// over conditions_triggered_waiting_published, assembling one Payload from
// the triggered condition's listed signals (newest-first, gated by I4/I5),
// clearing its triggered bit. It reports the payload (nil if nothing is
// currently triggered) and how long the caller may sleep before the next
// call could produce work.
func (e *Engine) CollectNextDataToSend(nowMs uint64) (*Payload, uint64) {
	if e.table == nil {
		return nil, idleWaitMs
	}

	width := len(e.table.Matrix.Conditions)
	for i := 0; i < width; i++ {
		slot := e.table.NextCollectIndex()
		if !e.table.TriggeredWaitingPublished.Test(uint(slot)) {
			continue
		}

		cond := e.table.Matrix.Conditions[slot]
		e.table.TriggeredWaitingPublished.Clear(uint(slot))

		payload := e.assemblePayload(uint(slot), cond)

		if e.cfg.Metrics != nil {
			e.cfg.Metrics.RecordPayloadCollected(len(payload.Signals))
		}
		if e.cfg.OutQueue != nil {
			e.cfg.OutQueue.Push(payload)
		}

		wait := idleWaitMs
		if e.table.TriggeredWaitingPublished.Any() {
			wait = 0
		}
		return payload, wait
	}

	return nil, idleWaitMs
}

func (e *Engine) assemblePayload(slot uint, cond *act.Condition) *Payload {
	payload := &Payload{
		SchemeID:      cond.SchemeID,
		EventID:       cond.EventID,
		TriggerTimeMs: cond.LastTriggerMonotonicMs,
	}

	var maxSystemMs uint64
	for _, signalID := range cond.CollectedSignalIDs {
		ref, ok := cond.SampleBuffersBySignal[signalID]
		if !ok {
			continue
		}
		size := cond.SampleBufferSize[signalID]
		if size <= 0 {
			size = 1
		}

		// I4 only filters/advances last_published_system_ms in
		// send-once-per-condition mode; level-mode conditions always
		// re-collect the newest samples regardless of what was last sent.
		afterSystemMs := uint64(0)
		if cond.SendOncePerCondition {
			afterSystemMs = cond.LastPublishedSystemMs
		}

		collected, newMax := e.collectSignal(ref.SignalType, signalID, ref.MinIntervalMs, slot, size, afterSystemMs, cond.SendOncePerCondition)
		payload.Signals = append(payload.Signals, collected...)
		if newMax > maxSystemMs {
			maxSystemMs = newMax
		}
	}

	if cond.SendOncePerCondition && maxSystemMs > cond.LastPublishedSystemMs {
		cond.LastPublishedSystemMs = maxSystemMs
	}

	if cond.IncludeActiveDTCs {
		generation := atomic.LoadUint64(&e.dtcGeneration)
		if e.conditionDTCGeneration[slot] != generation {
			payload.ActiveDTCs = e.dtcStore.Get()
			e.conditionDTCGeneration[slot] = generation
		}
	}

	return payload
}
