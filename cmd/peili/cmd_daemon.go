package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/yairfalse/peili/orchestrator"
	"github.com/yairfalse/peili/telemetry"
)

var (
	daemonMetricsAddr string
	daemonInterval    time.Duration
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run continuous synchronization daemon",
	Long: `Run Peili in daemon mode for continuous inventory synchronization.

The daemon runs a full sync pass at the configured interval, exports
Prometheus metrics and OTLP traces, and shuts down gracefully on
SIGTERM/SIGINT.`,
	Example: `  peili daemon                          # Run with ./peili.yaml
  peili daemon --interval 15m           # Override the sync interval
  peili daemon --metrics-addr :2112     # Custom metrics listener`,
	RunE: runDaemonCmd,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics-addr", ":2112", "Metrics HTTP listen address")
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Sync interval, overrides the config file")
}

func runDaemonCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if daemonInterval > 0 {
		cfg.Sync.Interval = daemonInterval
	}

	ctx := context.Background()

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "peili",
		ServiceVersion: version,
		OTELEndpoint:   cfg.OTEL.Endpoint,
		Insecure:       cfg.OTEL.Insecure,
		PushMetrics:    cfg.OTEL.PushMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	o, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger("daemon")
	logger.Info().
		Str("interval", cfg.Sync.Interval.String()).
		Str("metrics_addr", daemonMetricsAddr).
		Msg("starting daemon")

	var group run.Group

	// Sync loop: one pass immediately, then on every tick.
	loopCtx, loopCancel := context.WithCancel(ctx)
	group.Add(func() error {
		return syncLoop(loopCtx, o, cfg.Sync.Interval)
	}, func(error) {
		loopCancel()
	})

	// Metrics and health endpoints.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	server := &http.Server{Addr: daemonMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	group.Add(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})

	// Graceful shutdown on signals.
	group.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err = group.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		logger.Info().Str("signal", sig.Signal.String()).Msg("daemon stopped")
		return nil
	}
	return err
}

// syncLoop runs passes until ctx is cancelled. A failed run logs and waits
// for the next tick rather than killing the daemon; only losing the store
// session entirely would make continuing pointless, and even that heals on
// the next tick's fresh authentication.
func syncLoop(ctx context.Context, o *orchestrator.Orchestrator, interval time.Duration) error {
	logger := telemetry.NewLogger("daemon")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		runPass(ctx, o, logger)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func runPass(ctx context.Context, o *orchestrator.Orchestrator, logger *telemetry.Logger) {
	report, err := o.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Error().Err(err).Msg("sync run failed")
		return
	}

	observed, written, staled := report.Totals()
	logger.Info().
		Int("types", len(report.Passes)).
		Int("observed", observed).
		Int("written", written).
		Int("staled", staled).
		Bool("failures", report.Failed()).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("sync run complete")
}
