package metrics

import "time"

// EngineMetrics provides observability for the collection and inspection
// engine's core loop: condition evaluation, inspection matrix swaps, and
// the raw data buffer manager's memory usage.
//
// Implementations are optional - pass nil to disable metrics collection
// with zero overhead.
type EngineMetrics interface {
	// RecordEvaluation records one condition evaluation outcome.
	RecordEvaluation(schemeID string, duration time.Duration, errorKind string)

	// RecordMatrixSwap records an inspection matrix swap, successful or
	// rejected (because its history buffers exceed the sample memory budget).
	RecordMatrixSwap(accepted bool)

	// RecordSignalAccepted records a sample accepted into a signal history
	// buffer.
	RecordSignalAccepted(signalType string)

	// RecordSignalDropped records a sample the engine could not store in a
	// signal history buffer (no buffer for it, an unsupported value, or a
	// STRING payload the raw data buffer manager rejected).
	RecordSignalDropped(signalType string)

	// SetRDBMBytesInUse updates the raw data buffer manager's current
	// memory usage.
	SetRDBMBytesInUse(bytes int64)

	// RecordPayloadCollected records an assembled payload handed to the
	// output queue, along with its sample count.
	RecordPayloadCollected(sampleCount int)
}

var newPrometheusEngineMetrics func() EngineMetrics

// RegisterEngineMetricsConstructor registers the Prometheus engine metrics
// constructor. Called by pkg/metrics/prometheus/engine.go's init().
func RegisterEngineMetricsConstructor(constructor func() EngineMetrics) {
	newPrometheusEngineMetrics = constructor
}

// NewEngineMetrics creates a new Prometheus-backed EngineMetrics instance.
// Returns nil if metrics are not enabled.
func NewEngineMetrics() EngineMetrics {
	if !IsEnabled() || newPrometheusEngineMetrics == nil {
		return nil
	}
	return newPrometheusEngineMetrics()
}
