package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Escalate oversight requests past their deadline",
	Long:  "Scan unfinished oversight requests whose escalation deadline has passed and apply the deadline-breach transition. Runs once, or periodically with --interval.",
	RunE:  runSweep,
}

var (
	sweepOnce        bool
	sweepInterval    time.Duration
	sweepMetricsAddr string
)

func init() {
	sweepCmd.Flags().BoolVar(&sweepOnce, "once", false, "Run a single sweep and exit")
	sweepCmd.Flags().DurationVar(&sweepInterval, "interval", 5*time.Minute, "Time between sweeps")
	sweepCmd.Flags().StringVar(&sweepMetricsAddr, "metrics-addr", "", "Listen address for the Prometheus endpoint (optional, e.g. :9090)")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.close()

	if sweepOnce {
		transitioned, err := application.gate.SweepExpired(ctx)
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Escalated %d requests\n", transitioned)
		return nil
	}

	metricsAddr := sweepMetricsAddr
	if metricsAddr == "" {
		metricsAddr = application.cfg.MetricsAddr
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				application.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer server.Close()
		application.logger.Info("metrics endpoint listening", zap.String("addr", metricsAddr))
	}

	application.logger.Info("escalation sweep started", zap.Duration("interval", sweepInterval))
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			application.logger.Info("escalation sweep stopping")
			return nil
		case <-ticker.C:
			transitioned, err := application.gate.SweepExpired(ctx)
			if err != nil {
				application.logger.Error("sweep failed", zap.Error(err))
				continue
			}
			if transitioned > 0 {
				application.logger.Info("sweep escalated requests", zap.Int("count", transitioned))
			}
		}
	}
}
