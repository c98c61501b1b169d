package prometheus

import (
	"time"

	"github.com/marmos91/edge-agent/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterFetchMetricsConstructor(NewFetchMetrics)
}

// fetchMetrics is the Prometheus implementation of metrics.FetchMetrics.
type fetchMetrics struct {
	executions        *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	pendingRequests   prometheus.Gauge
}

// NewFetchMetrics creates a new Prometheus-backed FetchMetrics instance.
func NewFetchMetrics() metrics.FetchMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &fetchMetrics{
		executions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_fetch_executions_total",
				Help: "Total number of data fetch executions by trigger and error kind.",
			},
			[]string{"trigger", "error_kind"}, // trigger: "periodic", "event"
		),
		executionDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edge_fetch_execution_duration_milliseconds",
				Help:    "Duration of a data fetch execution in milliseconds.",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"trigger"},
		),
		pendingRequests: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "edge_fetch_pending_requests",
				Help: "Current number of fetch requests waiting in the fetch queue.",
			},
		),
	}
}

func (m *fetchMetrics) RecordExecution(trigger string, duration time.Duration, errorKind string) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(trigger, errorKind).Inc()
	m.executionDuration.WithLabelValues(trigger).Observe(float64(duration.Milliseconds()))
}

func (m *fetchMetrics) SetPendingRequests(count int) {
	if m == nil {
		return
	}
	m.pendingRequests.Set(float64(count))
}
