package prometheus

import (
	"github.com/marmos91/edge-agent/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterLKSIStoreMetricsConstructor(NewLKSIStoreMetrics)
}

// lksiStoreMetrics is the Prometheus implementation of metrics.LKSIStoreMetrics.
type lksiStoreMetrics struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	persists prometheus.Counter
}

// NewLKSIStoreMetrics creates a new Prometheus-backed LKSIStoreMetrics instance.
func NewLKSIStoreMetrics() metrics.LKSIStoreMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &lksiStoreMetrics{
		hits: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "edge_lksi_store_hits_total",
				Help: "Total number of successful reads of the persisted state template list.",
			},
		),
		misses: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "edge_lksi_store_misses_total",
				Help: "Total number of reads that found no usable persisted state template list.",
			},
		),
		persists: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "edge_lksi_store_persists_total",
				Help: "Total number of writes of the state template list to the persisted store.",
			},
		),
	}
}

func (m *lksiStoreMetrics) RecordHit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}

func (m *lksiStoreMetrics) RecordMiss() {
	if m == nil {
		return
	}
	m.misses.Inc()
}

func (m *lksiStoreMetrics) RecordPersist() {
	if m == nil {
		return
	}
	m.persists.Inc()
}
