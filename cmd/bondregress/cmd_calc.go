package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/quantfix/bondregress/internal/config"
	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/recorder"
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Run a single calculation through the recording engine",
	Long: `Runs one bond analytics calculation and emits a capture record, the
same path production traffic takes. Useful for smoke checks and for seeding
the capture stream locally.

Example:
  bondregress calc --id DEMO-1 --coupon 5 --maturity 2029-06-15 \
      --price 98.50 --settlement 2024-06-15`,
	RunE: runCalc,
}

var (
	calcID         string
	calcCoupon     float64
	calcMaturity   string
	calcPrice      float64
	calcSettlement string
	calcFace       float64
	calcFrequency  int
	calcDayCount   string
)

func init() {
	rootCmd.AddCommand(calcCmd)

	calcCmd.Flags().StringVar(&calcID, "id", "", "Instrument identifier (required)")
	calcCmd.Flags().Float64Var(&calcCoupon, "coupon", 0, "Annual coupon rate in percent (required)")
	calcCmd.Flags().StringVar(&calcMaturity, "maturity", "", "Maturity date YYYY-MM-DD (required)")
	calcCmd.Flags().Float64Var(&calcPrice, "price", 0, "Market price (required)")
	calcCmd.Flags().StringVar(&calcSettlement, "settlement", "", "Settlement date YYYY-MM-DD (default today)")
	calcCmd.Flags().Float64Var(&calcFace, "face", 100, "Face value")
	calcCmd.Flags().IntVar(&calcFrequency, "frequency", 2, "Coupon payments per year")
	calcCmd.Flags().StringVar(&calcDayCount, "day-count", string(engine.DayCountThirty360), "Day count convention (30/360|ACT/365|ACT/ACT)")

	calcCmd.MarkFlagRequired("id")
	calcCmd.MarkFlagRequired("coupon")
	calcCmd.MarkFlagRequired("maturity")
	calcCmd.MarkFlagRequired("price")
}

func runCalc(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	maturity, err := time.Parse("2006-01-02", calcMaturity)
	if err != nil {
		return fmt.Errorf("invalid --maturity: %w", err)
	}

	settlement := time.Now().UTC().Truncate(24 * time.Hour)
	if calcSettlement != "" {
		settlement, err = time.Parse("2006-01-02", calcSettlement)
		if err != nil {
			return fmt.Errorf("invalid --settlement: %w", err)
		}
	}

	terms := engine.NewBondTerms(calcID, decimal.NewFromFloat(calcCoupon), maturity)
	terms.FaceValue = decimal.NewFromFloat(calcFace)
	terms.Frequency = calcFrequency
	terms.DayCount = engine.DayCount(calcDayCount)

	input := engine.CalculationInput{
		Terms:       terms,
		MarketPrice: decimal.NewFromFloat(calcPrice),
		Settlement:  settlement,
	}

	sink, closeSink, err := buildSink(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	rec := recorder.New(engine.New(), sink)
	result, err := rec.Calculate(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("calculation failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// buildSink picks the capture sink matching the configured record source, so
// locally seeded records land where curate will look for them.
func buildSink(cfg *config.Config) (recorder.RecordSink, func(), error) {
	if cfg.Source.Backend == config.BackendFile {
		if err := os.MkdirAll(filepath.Dir(cfg.Source.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create capture dir: %w", err)
		}
		sink, err := recorder.NewFileSink(cfg.Source.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open capture file: %w", err)
		}
		return sink, func() { sink.Close() }, nil
	}
	return recorder.NewLogSink(log.Logger), func() {}, nil
}
