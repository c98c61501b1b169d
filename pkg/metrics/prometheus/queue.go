package prometheus

import (
	"github.com/marmos91/edge-agent/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterQueueMetricsConstructor(NewQueueMetrics)
}

// queueMetrics is the Prometheus implementation of metrics.QueueMetrics.
type queueMetrics struct {
	pushes *prometheus.CounterVec
	drops  *prometheus.CounterVec
	pops   *prometheus.CounterVec
	depth  *prometheus.GaugeVec
}

// NewQueueMetrics creates a new Prometheus-backed QueueMetrics instance.
func NewQueueMetrics() metrics.QueueMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &queueMetrics{
		pushes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_queue_pushes_total",
				Help: "Total number of items pushed onto a bounded queue.",
			},
			[]string{"queue"},
		),
		drops: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_queue_drops_total",
				Help: "Total number of items dropped because a bounded queue was full.",
			},
			[]string{"queue"},
		),
		pops: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_queue_pops_total",
				Help: "Total number of items popped from a bounded queue.",
			},
			[]string{"queue"},
		),
		depth: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edge_queue_depth",
				Help: "Current depth of a bounded queue.",
			},
			[]string{"queue"},
		),
	}
}

func (m *queueMetrics) RecordPush(queue string) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(queue).Inc()
}

func (m *queueMetrics) RecordDrop(queue string) {
	if m == nil {
		return
	}
	m.drops.WithLabelValues(queue).Inc()
}

func (m *queueMetrics) RecordPop(queue string) {
	if m == nil {
		return
	}
	m.pops.WithLabelValues(queue).Inc()
}

func (m *queueMetrics) SetDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.depth.WithLabelValues(queue).Set(float64(depth))
}
