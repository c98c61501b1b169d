// Package act implements the active condition table's data model (ACT,
// spec component C5): the Condition row shape, the immutable
// InspectionMatrix snapshot, and the global condition/fetch-condition
// bitmaps the inspection worker mutates during evaluation.
package act

import (
	"github.com/marmos91/edge-agent/pkg/eval"
	"github.com/marmos91/edge-agent/pkg/signal"
)

// BufferRef opaquely identifies one SHBS ring buffer. The engine resolves
// it against its own typed buffer store; ACT only needs it to know which
// buffers a condition depends on.
type BufferRef struct {
	SignalID      signal.ID
	MinIntervalMs uint64

	// FetchRequestID scopes this buffer to samples originating from a
	// particular fetch context, isolating otherwise-identical signal ids
	// produced by distinct fetch actions (spec add_new_signal routing).
	// signal.DefaultFetchRequestID for producer-pushed (non-fetched)
	// signals.
	FetchRequestID uint32

	// SignalType and Capacity are the per-signal ring buffer parameters
	// the inspection matrix's domain model names alongside
	// (condition_slot, signal_id, sample_interval_ms): the type the SHBS
	// ring buffer specializes to, and the ring's fixed sample count.
	SignalType signal.Type
	Capacity   int

	// IsConditionOnly marks a buffer that exists purely to feed this
	// condition's expression (never copied into an assembled payload).
	IsConditionOnly bool
}

// WindowRef identifies a single fixed-time window attached to a buffer.
type WindowRef struct {
	BufferRef
	WindowMs uint64
}

// Condition is one ACT row: a compiled expression plus the bookkeeping the
// engine needs to route signal changes to it, gate delivery, and assemble
// payloads.
type Condition struct {
	SchemeID   uint32
	Expression *eval.Node

	SampleBuffersBySignal map[signal.ID]BufferRef
	WindowsBySignal       map[signal.ID][]WindowRef

	// CollectedSignalIDs lists every signal a triggered payload for this
	// condition assembles, in the order they are emitted.
	CollectedSignalIDs []signal.ID

	LastTriggerMonotonicMs uint64
	LastPublishedSystemMs  uint64

	RisingEdgeOnly      bool
	SendOncePerCondition bool
	IsStatic            bool
	IncludeActiveDTCs   bool

	EventID uint32

	// SampleBufferSize bounds how many newest samples of each listed
	// signal are copied into an assembled payload.
	SampleBufferSize map[signal.ID]int

	// previousTrue tracks the last evaluation's boolean result for
	// rising-edge detection (P4): undefined/false -> true is a trigger,
	// true -> true is not (in rising-edge mode).
	previousTrue bool
}

// PreviousTrue reports whether the condition's last successful evaluation
// produced Bool(true).
func (c *Condition) PreviousTrue() bool { return c.previousTrue }

// SetPreviousTrue records the latest evaluation result for the next
// rising-edge check.
func (c *Condition) SetPreviousTrue(v bool) { c.previousTrue = v }

// InspectionMatrix is the immutable snapshot installed by a successful
// matrix swap: every condition plus, implicitly, the buffer specs each
// condition's SampleBuffersBySignal/WindowsBySignal reference (the engine
// derives the SHBS allocation request by walking every condition).
type InspectionMatrix struct {
	Conditions []*Condition
}

// ConditionWidth returns the bitmap width this matrix needs: one slot per
// condition.
func (m *InspectionMatrix) ConditionWidth() uint {
	return uint(len(m.Conditions))
}
