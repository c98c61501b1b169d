package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single inspection
// or fetch operation as it flows through the engine.
type LogContext struct {
	TraceID       string    // OpenTelemetry trace ID
	SpanID        string    // OpenTelemetry span ID
	SchemeID      string    // collection scheme / state template id
	ConditionSlot int       // ACT row index, -1 if not applicable
	SignalID      uint32    // signal under evaluation, 0 if not applicable
	SourceID      string    // producer id (bus adapter, script engine, ...)
	StartTime     time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a signal source
func NewLogContext(sourceID string) *LogContext {
	return &LogContext{
		SourceID:      sourceID,
		ConditionSlot: -1,
		StartTime:     time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithScheme returns a copy with the scheme id set
func (lc *LogContext) WithScheme(schemeID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SchemeID = schemeID
	}
	return clone
}

// WithCondition returns a copy with the condition slot set
func (lc *LogContext) WithCondition(slot int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ConditionSlot = slot
	}
	return clone
}

// WithSignal returns a copy with the signal id set
func (lc *LogContext) WithSignal(signalID uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SignalID = signalID
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
