package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfix/bondregress/internal/httpapi"
	"github.com/quantfix/bondregress/internal/metrics"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Start the monitoring HTTP server",
	Long: `Starts an HTTP server with /health, /metrics, and /baselines/{id}
endpoints for observing the regression pipeline and inspecting accepted
baselines.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	promReg := prometheus.NewRegistry()
	m := metrics.NewRegistry()
	if err := m.Register(promReg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Monitor.Host, cfg.Monitor.Port)
	srv := httpapi.New(addr, store, promReg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down monitor server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
