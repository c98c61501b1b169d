package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marmos91/edge-agent/internal/logger"
	"github.com/marmos91/edge-agent/internal/telemetry"
	"github.com/marmos91/edge-agent/pkg/config"
	"github.com/marmos91/edge-agent/pkg/customfunc"
	"github.com/marmos91/edge-agent/pkg/customfunc/multiedge"
	"github.com/marmos91/edge-agent/pkg/engine"
	"github.com/marmos91/edge-agent/pkg/fetch"
	"github.com/marmos91/edge-agent/pkg/lksi"
	lksistore "github.com/marmos91/edge-agent/pkg/lksi/store"
	"github.com/marmos91/edge-agent/pkg/metrics"
	"github.com/marmos91/edge-agent/pkg/queue"
	"github.com/marmos91/edge-agent/pkg/rdbm"
	"github.com/marmos91/edge-agent/pkg/signal"
	"github.com/spf13/cobra"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/edge-agent/pkg/metrics/prometheus"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the edge-agent collection and inspection engine",
	Long: `Start the edge-agent collection and inspection engine with the specified
configuration.

By default, the engine runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/edge-agent/config.yaml.

Examples:
  # Start in background (default)
  edge-agent start

  # Start in foreground
  edge-agent start --foreground

  # Start with custom config file
  edge-agent start --config /etc/edge-agent/config.yaml

  # Start with environment variable overrides
  EDGE_LOGGING_LEVEL=DEBUG edge-agent start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/edge-agent/edge-agent.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/edge-agent/edge-agent.log)")
}

// incomingSignal is one queued sample crossing from an (abstract, out of
// scope) signal producer into the inspection worker.
type incomingSignal struct {
	signalID       signal.ID
	fetchRequestID uint32
	rxSystemMs     uint64
	monotonicMs    uint64
	value          any
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "edge-agent",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "edge-agent",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	fmt.Println("edge-agent - connected vehicle telemetry collection and inspection engine")
	logger.Info("log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("profiling disabled")
	}

	metricsResult := metrics.Init(metrics.Config{
		Enabled: cfg.Metrics.Enabled,
		Port:    cfg.Metrics.Port,
	})
	if metricsResult.Server != nil {
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := metricsResult.Server.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", logger.Err(err))
			}
		}()
	} else {
		logger.Info("metrics collection disabled")
	}

	// ---- Engine (CIE, RDBM, SHBS, ACT, EE) ----

	rdbmManager := rdbm.New(rdbm.Config{
		MaxTotalBytes: cfg.Engine.MaxSampleMemory.Int64(),
	})

	customHost := customfunc.New()
	customHost.Register("multiRisingEdgeTrigger", multiedge.New(8, 1000))

	outQueue := queue.New[*engine.Payload]("outbound", cfg.Engine.OutputQueueCapacity, metrics.NewQueueMetrics())
	fetchQueue := queue.New[uint32]("fetch", cfg.Fetch.QueueCapacity, metrics.NewQueueMetrics())

	eng := engine.New(engine.Config{
		MaxSampleMemory:     cfg.Engine.MaxSampleMemory.Int64(),
		ConditionWidth:      uint(cfg.Engine.MaxActiveConditions),
		FetchConditionWidth: uint(cfg.Engine.MaxActiveConditions),
		RDBM:                rdbmManager,
		Customs:             customHost,
		OutQueue:            outQueue,
		FetchQueue:          fetchQueue,
		Metrics:             metrics.NewEngineMetrics(),
	})

	signalQueue := queue.New[incomingSignal]("signal", cfg.Engine.SignalQueueCapacity, metrics.NewQueueMetrics())

	// ---- Data Fetch Manager (DFM) ----

	var fetchManager *fetch.Manager
	if cfg.Fetch.Enabled {
		fetchManager = fetch.New(fetch.Config{
			FetchQueue: fetchQueue,
			Registry:   fetch.NewRegistry(),
			Metrics:    metrics.NewFetchMetrics(),
		})
		fetchManager.Start(ctx)
		defer fetchManager.Stop()
		logger.Info("data fetch manager started")
	} else {
		logger.Info("data fetch manager disabled")
	}

	// ---- Last-Known-State Inspector (LKSI) ----

	var lksiInspector *lksi.Inspector
	var lksiSignalQueue *queue.Queue[incomingSignal]
	if cfg.LKSI.Enabled {
		lksiDB, err := lksistore.Open(cfg.LKSI.DBPath, metrics.NewLKSIStoreMetrics())
		if err != nil {
			return fmt.Errorf("failed to open state template store: %w", err)
		}
		defer func() {
			if err := lksiDB.Close(); err != nil {
				logger.Error("state template store close error", logger.Err(err))
			}
		}()

		lksiInspector, err = lksi.New(lksi.Config{
			Store:            lksiDB,
			CommandResponses: queue.New[*lksi.CommandResponse]("lksi-command-response", cfg.LKSI.CommandQueueCapacity, metrics.NewQueueMetrics()),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize state template inspector: %w", err)
		}
		lksiSignalQueue = queue.New[incomingSignal]("lksi-signal", cfg.Engine.SignalQueueCapacity, metrics.NewQueueMetrics())
		logger.Info("last-known-state inspector started")
	} else {
		logger.Info("last-known-state inspector disabled")
	}

	// ---- Worker goroutines ----

	var wg workerGroup

	wg.spawn(func() { runInspectionWorker(ctx, eng, signalQueue) })
	if lksiInspector != nil {
		wg.spawn(func() { runLKSIWorker(ctx, lksiInspector, lksiSignalQueue) })
	}
	wg.spawn(func() { drainOutboundPayloads(ctx, outQueue) })

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("engine is running, press Ctrl+C to stop")
	<-sigChan
	signal.Stop(sigChan)
	logger.Info("shutdown signal received, initiating graceful shutdown")

	cancel()
	wg.wait(cfg.ShutdownTimeout)
	logger.Info("engine stopped gracefully")

	return nil
}

// runInspectionWorker is the CIE inspection loop (spec §5): it drains
// incoming signals, evaluates conditions, and forwards assembled payloads
// to the outbound queue, on a single goroutine per the engine's
// concurrency contract.
func runInspectionWorker(ctx context.Context, eng *engine.Engine, in *queue.Queue[incomingSignal]) {
	const tick = 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		for {
			sample, ok := in.Pop()
			if !ok {
				break
			}
			if err := eng.AddNewSignal(sample.signalID, sample.fetchRequestID, sample.rxSystemMs, sample.monotonicMs, sample.value); err != nil {
				logger.Warn("failed to add signal", logger.Err(err), logger.SignalID(uint32(sample.signalID)))
			}
		}

		nowMs := uint64(time.Now().UnixMilli())
		eng.EvaluateConditions(nowMs)
		for {
			payload, _ := eng.CollectNextDataToSend(nowMs)
			if payload == nil {
				break
			}
		}

		in.Wait(ctx, tick)
	}
}

// runLKSIWorker consumes the inspector's own signal queue, separate from
// the inspection worker's, per spec §4.8 ("runs alongside the CIE on its
// own thread").
func runLKSIWorker(ctx context.Context, ins *lksi.Inspector, in *queue.Queue[incomingSignal]) {
	const tick = 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		for {
			sample, ok := in.Pop()
			if !ok {
				break
			}
			ins.AddSignal(engine.CollectedSignal{
				SignalID:     sample.signalID,
				SystemTimeMs: sample.rxSystemMs,
				Value:        valueToInspection(sample.value),
			})
		}

		ins.CollectNextDataToSend(uint64(time.Now().UnixMilli()))
		in.Wait(ctx, tick)
	}
}

func valueToInspection(v any) signal.InspectionValue {
	switch x := v.(type) {
	case signal.InspectionValue:
		return x
	case float64:
		return signal.NumberValue(x)
	case bool:
		return signal.BoolValue(x)
	case string:
		return signal.StringValue(x)
	default:
		return signal.InspectionValue{}
	}
}

// drainOutboundPayloads consumes assembled payloads. Egress is an abstract
// sink in this release (spec §1 Non-goals): payloads are logged at debug
// level and discarded.
func drainOutboundPayloads(ctx context.Context, out *queue.Queue[*engine.Payload]) {
	const tick = 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		for {
			payload, ok := out.Pop()
			if !ok {
				break
			}
			logger.Debug("payload ready for dispatch", "scheme_id", payload.SchemeID, "event_id", payload.EventID, "signal_count", len(payload.Signals))
		}

		out.Wait(ctx, tick)
	}
}

// workerGroup tracks worker goroutines and waits for them to exit, with a
// bound on how long shutdown may take.
type workerGroup struct {
	done []chan struct{}
}

func (g *workerGroup) spawn(fn func()) {
	done := make(chan struct{})
	g.done = append(g.done, done)
	go func() {
		defer close(done)
		fn()
	}()
}

func (g *workerGroup) wait(timeout time.Duration) {
	deadline := time.After(timeout)
	for _, d := range g.done {
		select {
		case <-d:
		case <-deadline:
			logger.Warn("worker shutdown timed out")
			return
		}
	}
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
