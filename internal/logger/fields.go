package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the inspection engine.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Collection scheme / condition
	// ========================================================================
	KeySchemeID      = "scheme_id"      // collection scheme / state template id
	KeyConditionSlot = "condition_slot" // ACT row index
	KeyEventID       = "event_id"       // 32-bit assembled-payload event id
	KeyRisingEdge    = "rising_edge"    // whether the condition is rising-edge-only

	// ========================================================================
	// Signals
	// ========================================================================
	KeySignalID    = "signal_id"    // 32-bit signal identifier
	KeySignalType  = "signal_type"  // U8,I8,...,STRING
	KeySourceID    = "source_id"    // producer id (bus adapter, script engine, GPS, ...)
	KeyFetchReqID  = "fetch_id"     // fetch request id
	KeySampleCount = "sample_count" // number of samples carried by an operation

	// ========================================================================
	// Buffers / handles (RDBM)
	// ========================================================================
	KeyHandle    = "handle"    // RDBM buffer handle
	KeyStage     = "stage"     // RDBM refcount stage
	KeyByteSize  = "byte_size" // size in bytes
	KeyCapacity  = "capacity"  // ring buffer capacity

	// ========================================================================
	// Queues (BMPQ)
	// ========================================================================
	KeyQueueName = "queue_name" // queue identifier (signal, out, fetch, cmd-response)
	KeyQueueSize = "queue_size" // current queue depth

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorKind  = "error_kind"  // evaluator error kind (TypeMismatch, ...)
	KeyAttempt    = "attempt"     // retry/periodic execution attempt number
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// SchemeID returns a slog.Attr for the collection scheme id
func SchemeID(id string) slog.Attr { return slog.String(KeySchemeID, id) }

// ConditionSlot returns a slog.Attr for the ACT row index
func ConditionSlot(slot int) slog.Attr { return slog.Int(KeyConditionSlot, slot) }

// EventID returns a slog.Attr for the assembled-payload event id
func EventID(id uint32) slog.Attr { return slog.Uint64(KeyEventID, uint64(id)) }

// RisingEdge returns a slog.Attr for the rising-edge-only flag
func RisingEdge(b bool) slog.Attr { return slog.Bool(KeyRisingEdge, b) }

// SignalID returns a slog.Attr for a signal id
func SignalID(id uint32) slog.Attr { return slog.Uint64(KeySignalID, uint64(id)) }

// SignalType returns a slog.Attr for a signal type name
func SignalType(t string) slog.Attr { return slog.String(KeySignalType, t) }

// SourceID returns a slog.Attr for the producer id
func SourceID(id string) slog.Attr { return slog.String(KeySourceID, id) }

// FetchRequestID returns a slog.Attr for a fetch request id
func FetchRequestID(id uint32) slog.Attr { return slog.Uint64(KeyFetchReqID, uint64(id)) }

// SampleCount returns a slog.Attr for a sample count
func SampleCount(n int) slog.Attr { return slog.Int(KeySampleCount, n) }

// Handle returns a slog.Attr for an RDBM buffer handle
func Handle(h uint32) slog.Attr { return slog.Uint64(KeyHandle, uint64(h)) }

// Stage returns a slog.Attr for an RDBM refcount stage
func Stage(s string) slog.Attr { return slog.String(KeyStage, s) }

// ByteSize returns a slog.Attr for a byte size
func ByteSize(n int64) slog.Attr { return slog.Int64(KeyByteSize, n) }

// Capacity returns a slog.Attr for a ring buffer capacity
func Capacity(n int) slog.Attr { return slog.Int(KeyCapacity, n) }

// QueueName returns a slog.Attr for a queue identifier
func QueueName(name string) slog.Attr { return slog.String(KeyQueueName, name) }

// QueueSize returns a slog.Attr for a queue depth
func QueueSize(n int) slog.Attr { return slog.Int(KeyQueueSize, n) }

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns a slog.Attr for an evaluator error kind
func ErrorKind(kind string) slog.Attr { return slog.String(KeyErrorKind, kind) }

// Attempt returns a slog.Attr for a retry/periodic execution attempt number
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }
