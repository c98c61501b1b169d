package prometheus

import (
	"time"

	"github.com/marmos91/edge-agent/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterEngineMetricsConstructor(NewEngineMetrics)
}

// engineMetrics is the Prometheus implementation of metrics.EngineMetrics.
type engineMetrics struct {
	evaluations        *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	matrixSwaps        *prometheus.CounterVec
	signalsAccepted    *prometheus.CounterVec
	signalsDropped     *prometheus.CounterVec
	rdbmBytesInUse     prometheus.Gauge
	payloadsCollected  prometheus.Counter
	payloadSampleCount prometheus.Histogram
}

// NewEngineMetrics creates a new Prometheus-backed EngineMetrics instance.
func NewEngineMetrics() metrics.EngineMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &engineMetrics{
		evaluations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_engine_evaluations_total",
				Help: "Total number of condition evaluations by scheme and error kind.",
			},
			[]string{"scheme_id", "error_kind"},
		),
		evaluationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edge_engine_evaluation_duration_microseconds",
				Help:    "Duration of a single condition evaluation in microseconds.",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
			[]string{"scheme_id"},
		),
		matrixSwaps: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_engine_matrix_swaps_total",
				Help: "Total number of inspection matrix swaps by outcome.",
			},
			[]string{"outcome"}, // "accepted", "rejected"
		),
		signalsAccepted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_engine_signals_accepted_total",
				Help: "Total number of samples accepted into signal history buffers.",
			},
			[]string{"signal_type"},
		),
		signalsDropped: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_engine_signals_dropped_total",
				Help: "Total number of samples that could not be stored in a signal history buffer.",
			},
			[]string{"signal_type"},
		),
		rdbmBytesInUse: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "edge_engine_rdbm_bytes_in_use",
				Help: "Current raw data buffer manager memory usage in bytes.",
			},
		),
		payloadsCollected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "edge_engine_payloads_collected_total",
				Help: "Total number of assembled payloads handed to the output queue.",
			},
		),
		payloadSampleCount: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "edge_engine_payload_sample_count",
				Help:    "Distribution of sample counts per assembled payload.",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
		),
	}
}

func (m *engineMetrics) RecordEvaluation(schemeID string, duration time.Duration, errorKind string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(schemeID, errorKind).Inc()
	m.evaluationDuration.WithLabelValues(schemeID).Observe(float64(duration.Microseconds()))
}

func (m *engineMetrics) RecordMatrixSwap(accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.matrixSwaps.WithLabelValues(outcome).Inc()
}

func (m *engineMetrics) RecordSignalAccepted(signalType string) {
	if m == nil {
		return
	}
	m.signalsAccepted.WithLabelValues(signalType).Inc()
}

func (m *engineMetrics) RecordSignalDropped(signalType string) {
	if m == nil {
		return
	}
	m.signalsDropped.WithLabelValues(signalType).Inc()
}

func (m *engineMetrics) SetRDBMBytesInUse(bytes int64) {
	if m == nil {
		return
	}
	m.rdbmBytesInUse.Set(float64(bytes))
}

func (m *engineMetrics) RecordPayloadCollected(sampleCount int) {
	if m == nil {
		return
	}
	m.payloadsCollected.Inc()
	m.payloadSampleCount.Observe(float64(sampleCount))
}
