package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/edge-agent/internal/logger"
	"github.com/marmos91/edge-agent/pkg/metrics"
	"github.com/marmos91/edge-agent/pkg/queue"
)

// noDeadline marks "no periodic entry pending" in tick's returned wait
// duration, telling run to park until the next event or indefinitely.
const noDeadline = -1 * time.Millisecond

// Config carries everything a Manager needs for its lifetime.
type Config struct {
	FetchQueue *queue.Queue[uint32]
	Registry   *Registry
	Metrics    metrics.FetchMetrics

	// Now supplies the current monotonic time in milliseconds; defaults
	// to time.Now-derived wall time if nil.
	Now func() uint64
}

// Manager is the Data Fetch Manager: one worker goroutine that drains
// event-driven fetch requests and runs periodic fetches on their own
// schedule, both dispatched through Config.Registry.
type Manager struct {
	cfg Config

	matrix atomic.Pointer[Matrix]

	mu              sync.Mutex
	lastExecutionMs map[uint32]uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Manager with no matrix installed.
func New(cfg Config) *Manager {
	return &Manager{
		cfg:             cfg,
		lastExecutionMs: make(map[uint32]uint64),
	}
}

func (m *Manager) nowMs() uint64 {
	if m.cfg.Now != nil {
		return m.cfg.Now()
	}
	return uint64(time.Now().UnixMilli())
}

// OnChangeFetchMatrix installs a new fetch matrix, replacing the previous
// one atomically.
func (m *Manager) OnChangeFetchMatrix(matrix *Matrix) {
	m.matrix.Store(matrix)
	logger.Info("fetch matrix updated")
}

// Start begins the worker goroutine. The worker runs until ctx is
// cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run()
}

// Stop cancels the worker and blocks until it has exited.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// run is the DFM loop: drain the fetch queue, run due periodic fetches,
// then park until the earliest next deadline, a new request, or shutdown.
func (m *Manager) run() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		wait := m.tick()

		if m.cfg.Metrics != nil {
			m.cfg.Metrics.SetPendingRequests(m.cfg.FetchQueue.Len())
		}

		if wait == noDeadline {
			m.cfg.FetchQueue.Wait(m.ctx, 0)
			continue
		}
		if wait > 0 {
			m.cfg.FetchQueue.Wait(m.ctx, wait)
		}
	}
}

// tick drains every pending event-driven request, runs any periodic fetch
// whose frequency has elapsed, and reports how long the caller may sleep
// before the next periodic deadline (noDeadline if none is scheduled).
func (m *Manager) tick() time.Duration {
	matrix := m.matrix.Load()

	for {
		fetchID, ok := m.cfg.FetchQueue.Pop()
		if !ok {
			break
		}
		m.executeFetch(matrix, fetchID, "event")
	}

	if matrix == nil || len(matrix.Periodic) == 0 {
		return noDeadline
	}

	now := m.nowMs()
	minWaitMs := uint64(0)
	haveDeadline := false

	m.mu.Lock()
	for fetchID, spec := range matrix.Periodic {
		last := m.lastExecutionMs[fetchID]
		if last == 0 || now-last >= spec.FrequencyMs {
			m.mu.Unlock()
			m.executeFetch(matrix, fetchID, "periodic")
			m.mu.Lock()
			last = now
			m.lastExecutionMs[fetchID] = now
		}

		deadline := last + spec.FrequencyMs
		var remaining uint64
		if deadline > now {
			remaining = deadline - now
		}
		if !haveDeadline || remaining < minWaitMs {
			minWaitMs = remaining
			haveDeadline = true
		}
	}
	m.mu.Unlock()

	if !haveDeadline {
		return noDeadline
	}
	return time.Duration(minWaitMs) * time.Millisecond
}

// executeFetch runs every action registered for fetchID in order, aborting
// the remainder if one reports an error other than Successful or
// RequestedToStop.
func (m *Manager) executeFetch(matrix *Matrix, fetchID uint32, trigger string) ErrorCode {
	start := time.Now()
	result := m.doExecuteFetch(matrix, fetchID)
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.RecordExecution(trigger, time.Since(start), result.String())
	}
	return result
}

func (m *Manager) doExecuteFetch(matrix *Matrix, fetchID uint32) ErrorCode {
	if m.ctx != nil {
		select {
		case <-m.ctx.Done():
			return NotImplemented
		default:
		}
	}

	if matrix == nil {
		return NotImplemented
	}

	requests, ok := matrix.PerFetchID[fetchID]
	if !ok || len(requests) == 0 {
		logger.Error("unknown fetch request id", logger.FetchRequestID(fetchID))
		return SignalNotFound
	}

	for _, req := range requests {
		fn, ok := m.cfg.Registry.Lookup(req.FunctionName)
		if !ok {
			logger.Error("unknown custom fetch function", "function", req.FunctionName)
			continue
		}

		result := fn(req.SignalID, fetchID, req.Args)
		if result != Successful && result != RequestedToStop {
			logger.Error("fetch action failed",
				"function", req.FunctionName, logger.SignalID(uint32(req.SignalID)), "result", result.String())
			return result
		}
	}

	return Successful
}
