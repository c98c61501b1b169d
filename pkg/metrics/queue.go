package metrics

// QueueMetrics provides observability for a bounded multi-producer queue
// (signal intake, fetch requests, output payloads, LKSI commands).
//
// Implementations are optional - pass nil to disable metrics collection
// with zero overhead.
type QueueMetrics interface {
	// RecordPush records a successful push onto the queue.
	RecordPush(queue string)

	// RecordDrop records a push that was rejected because the queue was
	// at capacity.
	RecordDrop(queue string)

	// RecordPop records an item removed from the queue.
	RecordPop(queue string)

	// SetDepth updates the current queue depth.
	SetDepth(queue string, depth int)
}

// newPrometheusQueueMetrics is registered by pkg/metrics/prometheus/queue.go
// during package initialization.
var newPrometheusQueueMetrics func() QueueMetrics

// RegisterQueueMetricsConstructor registers the Prometheus queue metrics
// constructor. Called by pkg/metrics/prometheus/queue.go's init().
func RegisterQueueMetricsConstructor(constructor func() QueueMetrics) {
	newPrometheusQueueMetrics = constructor
}

// NewQueueMetrics creates a new Prometheus-backed QueueMetrics instance.
// Returns nil if metrics are not enabled.
func NewQueueMetrics() QueueMetrics {
	if !IsEnabled() || newPrometheusQueueMetrics == nil {
		return nil
	}
	return newPrometheusQueueMetrics()
}
