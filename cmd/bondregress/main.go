package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quantfix/bondregress/internal/config"
)

const version = "v1.0.0"

var rootCmd = &cobra.Command{
	Use:     "bondregress",
	Short:   "Regression pipeline for the bond analytics engine",
	Version: version,
	Long: `bondregress guards the bond analytics calculation engine against
unintended numeric changes. It captures production calculations, curates
them into an anonymized golden dataset, and compares every engine run
against accepted baseline snapshots.`,
}

var cfgPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.Path(), "Path to YAML configuration")
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configured YAML file, falling back to defaults when
// the file does not exist, and refuses to run on validation problems.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("path", cfgPath).Msg("config file not found, using defaults")
			return config.Default(), nil
		}
		return nil, err
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			log.Error().Str("problem", p).Msg("invalid configuration")
		}
		return nil, fmt.Errorf("configuration has %d problem(s)", len(problems))
	}

	return cfg, nil
}
