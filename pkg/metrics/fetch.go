package metrics

import "time"

// FetchMetrics provides observability for the data fetch manager's
// periodic and event-driven request execution.
//
// Implementations are optional - pass nil to disable metrics collection
// with zero overhead.
type FetchMetrics interface {
	// RecordExecution records one fetch request execution, whether it
	// was raised by a periodic schedule or an event-driven condition.
	RecordExecution(trigger string, duration time.Duration, errorKind string)

	// SetPendingRequests updates the number of fetch requests waiting in
	// the bounded fetch request queue.
	SetPendingRequests(count int)
}

var newPrometheusFetchMetrics func() FetchMetrics

// RegisterFetchMetricsConstructor registers the Prometheus fetch metrics
// constructor. Called by pkg/metrics/prometheus/fetch.go's init().
func RegisterFetchMetricsConstructor(constructor func() FetchMetrics) {
	newPrometheusFetchMetrics = constructor
}

// NewFetchMetrics creates a new Prometheus-backed FetchMetrics instance.
// Returns nil if metrics are not enabled.
func NewFetchMetrics() FetchMetrics {
	if !IsEnabled() || newPrometheusFetchMetrics == nil {
		return nil
	}
	return newPrometheusFetchMetrics()
}
