package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfix/bondregress/internal/anonymizer"
	"github.com/quantfix/bondregress/internal/curator"
	"github.com/quantfix/bondregress/internal/dataset"
	"github.com/quantfix/bondregress/internal/records"
)

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Build the production golden dataset from captured records",
	Long: `Fetches captured calculation records, selects a diverse subset across
price, coupon, and maturity strata, anonymizes the instruments, and writes
the production golden dataset file.

The production file is regenerated wholesale on every run so curation stays
reproducible from the capture stream.`,
	RunE: runCurate,
}

var (
	curateMaxCases int
	curateDryRun   bool
)

func init() {
	rootCmd.AddCommand(curateCmd)

	curateCmd.Flags().IntVar(&curateMaxCases, "max-cases", 0, "Override curation.max_cases from config")
	curateCmd.Flags().BoolVar(&curateDryRun, "dry-run", false, "Report selection without writing the dataset")
}

func runCurate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	maxCases := cfg.Curation.MaxCases
	if curateMaxCases > 0 {
		maxCases = curateMaxCases
	}

	source, err := buildSource(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	recs, err := source.FetchRecords(ctx, cfg.Source.FilterTag)
	if err != nil {
		return fmt.Errorf("fetch capture records: %w", err)
	}

	successes := make([]records.CalculationRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.Success {
			successes = append(successes, rec)
		}
	}
	log.Info().Int("fetched", len(recs)).Int("successful", len(successes)).
		Msg("capture records loaded")

	curated := curator.Curate(successes, maxCases)

	anon := anonymizer.New()
	cases := make([]dataset.TestCase, 0, len(curated))
	for i, rec := range curated {
		tc, err := anon.Anonymize(rec, fmt.Sprintf("PROD%04d", i+1))
		if err != nil {
			return fmt.Errorf("anonymize record %s: %w", rec.CorrelationID, err)
		}
		cases = append(cases, tc)
	}

	if curateDryRun {
		for _, tc := range cases {
			fmt.Printf("%s  %s  %v\n", tc.ID, tc.Description, tc.Tags)
		}
		log.Info().Int("cases", len(cases)).Msg("dry run, dataset not written")
		return nil
	}

	path := filepath.Join(cfg.Dataset.Dir, dataset.ProductionFile)
	if err := dataset.WriteFile(path, cases); err != nil {
		return fmt.Errorf("write production dataset: %w", err)
	}

	log.Info().Int("cases", len(cases)).Str("path", path).Msg("production dataset written")
	return nil
}
