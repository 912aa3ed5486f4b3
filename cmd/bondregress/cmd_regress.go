package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfix/bondregress/internal/dataset"
	"github.com/quantfix/bondregress/internal/httpapi"
	"github.com/quantfix/bondregress/internal/metrics"
	"github.com/quantfix/bondregress/internal/snapshot"
)

var regressCmd = &cobra.Command{
	Use:   "regress",
	Short: "Run the golden dataset against the engine and compare baselines",
	Long: `Loads the golden dataset, recalculates every test case through the
capture recorder, and compares the resulting snapshots against accepted
baselines. New cases get an initial baseline; any mismatch fails the run.`,
	RunE: runRegress,
}

var (
	regressJSON        bool
	regressMetricsAddr string
)

func init() {
	rootCmd.AddCommand(regressCmd)

	regressCmd.Flags().BoolVar(&regressJSON, "json", false, "Emit the run summary as JSON")
	regressCmd.Flags().StringVar(&regressMetricsAddr, "metrics-addr", "", "Serve /metrics on this address for the duration of the run")
}

func runRegress(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ds, err := dataset.LoadDir(cfg.Dataset.Dir)
	if err != nil {
		return fmt.Errorf("load golden dataset: %w", err)
	}
	if ds.Len() == 0 {
		return fmt.Errorf("golden dataset at %s is empty", cfg.Dataset.Dir)
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, closeRec, err := buildRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeRec()

	promReg := prometheus.NewRegistry()
	m := metrics.NewRegistry()
	if err := m.Register(promReg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	if regressMetricsAddr != "" {
		srv := httpapi.New(regressMetricsAddr, store, promReg)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	harness := snapshot.New(rec, store, cfg.Harness.Parallelism, m)

	summary, err := harness.RunAll(cmd.Context(), ds)
	if err != nil {
		if snapshot.IsStoreUnavailable(err) {
			return fmt.Errorf("run aborted, baseline store unavailable: %w", err)
		}
		return err
	}

	if regressJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(summary)
	}

	if !summary.Passed() {
		return fmt.Errorf("regression detected: %d case(s) mismatched", summary.Mismatched)
	}
	if summary.EngineError > 0 {
		return fmt.Errorf("%d case(s) failed to calculate", summary.EngineError)
	}
	return nil
}

func printSummary(summary snapshot.RunSummary) {
	fmt.Printf("Regression run: %d cases in %s\n", summary.Total, summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("  matched:       %d\n", summary.Matched)
	fmt.Printf("  new baselines: %d\n", summary.New)
	fmt.Printf("  mismatched:    %d\n", summary.Mismatched)
	fmt.Printf("  engine errors: %d\n", summary.EngineError)

	for _, res := range summary.Results {
		switch res.Outcome {
		case snapshot.OutcomeMismatch:
			fmt.Printf("\nMISMATCH %s\n", res.TestCaseID)
			for _, d := range res.Diffs {
				fmt.Printf("  %-28s baseline=%s received=%s\n", d.Field, d.Baseline, d.Received)
			}
		case snapshot.OutcomeEngineError:
			fmt.Printf("\nENGINE ERROR %s: %s\n", res.TestCaseID, res.Err)
		}
	}
}
