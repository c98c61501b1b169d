// Package metrics provides the engine's Prometheus instrumentation surface.
//
// The package follows an interface-indirection pattern: metrics interfaces
// (QueueMetrics, EngineMetrics, FetchMetrics, LKSIStoreMetrics) live here and
// are implemented by pkg/metrics/prometheus, which registers its constructors
// into package-level function variables on init(). This avoids an import
// cycle (metrics -> prometheus client registration -> metrics) while keeping
// every call site nil-safe: when metrics are disabled, constructors return
// nil and every recorder method tolerates a nil receiver.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled  atomic.Bool
	registry = prometheus.NewRegistry()
)

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the process-wide Prometheus registry used by every
// promauto constructor in pkg/metrics/prometheus.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Server wraps the metrics HTTP endpoint so callers can manage its
// lifecycle alongside the rest of the engine's worker goroutines.
type Server struct {
	httpServer *http.Server
}

// Shutdown gracefully stops the metrics HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Result is returned by Init: Server is nil when metrics are disabled.
type Result struct {
	Server *Server
}

// Config controls whether the metrics HTTP server runs and on which port.
type Config struct {
	Enabled bool
	Port    int
}

// Init enables metrics collection and, if cfg.Enabled, starts an HTTP
// server exposing /metrics in the Prometheus exposition format. The
// caller owns the returned Server's lifecycle.
func Init(cfg Config) Result {
	if !cfg.Enabled {
		enabled.Store(false)
		return Result{}
	}

	enabled.Store(true)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		_ = httpServer.ListenAndServe()
	}()

	return Result{Server: &Server{httpServer: httpServer}}
}
