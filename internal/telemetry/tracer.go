package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for engine operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Signal / scheme attributes
	// ========================================================================
	AttrSchemeID      = "scheme.id"
	AttrConditionSlot = "condition.slot"
	AttrEventID       = "condition.event_id"
	AttrSignalID      = "signal.id"
	AttrSignalType    = "signal.type"
	AttrSourceID      = "signal.source_id"
	AttrFetchReqID    = "fetch.request_id"

	// ========================================================================
	// Evaluator attributes
	// ========================================================================
	AttrErrorKind  = "eval.error_kind"
	AttrResultKind = "eval.result_kind"
	AttrNodeKind   = "eval.node_kind"

	// ========================================================================
	// RDBM attributes
	// ========================================================================
	AttrHandle   = "rdbm.handle"
	AttrStage    = "rdbm.stage"
	AttrByteSize = "rdbm.byte_size"

	// ========================================================================
	// Queue attributes
	// ========================================================================
	AttrQueueName = "queue.name"
	AttrQueueSize = "queue.size"
)

// Span names for engine operations.
const (
	SpanMatrixSwap        = "engine.matrix_swap"
	SpanSignalAccept      = "history.accept"
	SpanEvaluateCondition = "eval.condition"
	SpanCollectPayload    = "engine.collect_payload"
	SpanFetchExecute      = "fetch.execute"
	SpanFetchPeriodic     = "fetch.periodic"
	SpanLKSISnapshot      = "lksi.snapshot"
	SpanLKSICommand       = "lksi.command"
)

// SchemeID returns an attribute for a collection scheme / state template id
func SchemeID(id string) attribute.KeyValue {
	return attribute.String(AttrSchemeID, id)
}

// ConditionSlot returns an attribute for the ACT row index
func ConditionSlot(slot int) attribute.KeyValue {
	return attribute.Int(AttrConditionSlot, slot)
}

// EventID returns an attribute for an assembled payload's event id
func EventID(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrEventID, int64(id))
}

// SignalID returns an attribute for a signal id
func SignalID(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrSignalID, int64(id))
}

// SignalType returns an attribute for a signal type name
func SignalType(t string) attribute.KeyValue {
	return attribute.String(AttrSignalType, t)
}

// SourceID returns an attribute for a producer id
func SourceID(id string) attribute.KeyValue {
	return attribute.String(AttrSourceID, id)
}

// FetchRequestID returns an attribute for a fetch request id
func FetchRequestID(id uint32) attribute.KeyValue {
	return attribute.Int64(AttrFetchReqID, int64(id))
}

// ErrorKind returns an attribute for an evaluator error kind
func ErrorKind(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

// ResultKind returns an attribute for an evaluator result kind
func ResultKind(kind string) attribute.KeyValue {
	return attribute.String(AttrResultKind, kind)
}

// NodeKind returns an attribute for an AST node kind
func NodeKind(kind string) attribute.KeyValue {
	return attribute.String(AttrNodeKind, kind)
}

// Handle returns an attribute for an RDBM buffer handle
func Handle(h uint32) attribute.KeyValue {
	return attribute.Int64(AttrHandle, int64(h))
}

// Stage returns an attribute for an RDBM refcount stage
func Stage(s string) attribute.KeyValue {
	return attribute.String(AttrStage, s)
}

// ByteSize returns an attribute for a byte size
func ByteSize(n int64) attribute.KeyValue {
	return attribute.Int64(AttrByteSize, n)
}

// QueueName returns an attribute for a queue identifier
func QueueName(name string) attribute.KeyValue {
	return attribute.String(AttrQueueName, name)
}

// QueueSize returns an attribute for a queue depth
func QueueSize(n int) attribute.KeyValue {
	return attribute.Int(AttrQueueSize, n)
}

// StartConditionSpan starts a span for evaluating a single condition.
func StartConditionSpan(ctx context.Context, schemeID string, slot int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{SchemeID(schemeID), ConditionSlot(slot)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, SpanEvaluateCondition, trace.WithAttributes(allAttrs...))
}

// StartFetchSpan starts a span for a fetch request execution.
func StartFetchSpan(ctx context.Context, fetchID uint32, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{FetchRequestID(fetchID)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, SpanFetchExecute, trace.WithAttributes(allAttrs...))
}

// StartMatrixSwapSpan starts a span for an inspection matrix swap.
func StartMatrixSwapSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanMatrixSwap, trace.WithAttributes(attrs...))
}
