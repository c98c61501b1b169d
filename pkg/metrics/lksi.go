package metrics

// LKSIStoreMetrics provides observability for the last-known-state
// inspector's BadgerDB-backed state template metadata store.
//
// Implementations are optional - pass nil to disable metrics collection
// with zero overhead.
type LKSIStoreMetrics interface {
	// RecordHit records a successful read of the state template list from
	// the persisted store.
	RecordHit()

	// RecordMiss records a read that found no usable persisted state
	// template list (first boot, a fresh store, or an unreadable blob).
	RecordMiss()

	// RecordPersist records a write of the state template list to the
	// persisted store.
	RecordPersist()
}

var newPrometheusLKSIStoreMetrics func() LKSIStoreMetrics

// RegisterLKSIStoreMetricsConstructor registers the Prometheus LKSI store
// metrics constructor. Called by pkg/metrics/prometheus/lksi.go's init().
func RegisterLKSIStoreMetricsConstructor(constructor func() LKSIStoreMetrics) {
	newPrometheusLKSIStoreMetrics = constructor
}

// NewLKSIStoreMetrics creates a new Prometheus-backed LKSIStoreMetrics
// instance. Returns nil if metrics are not enabled.
func NewLKSIStoreMetrics() LKSIStoreMetrics {
	if !IsEnabled() || newPrometheusLKSIStoreMetrics == nil {
		return nil
	}
	return newPrometheusLKSIStoreMetrics()
}
