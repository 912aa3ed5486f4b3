package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantfix/bondregress/internal/dataset"
	"github.com/quantfix/bondregress/internal/snapshot"
)

var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Accept current engine output as the new baseline",
	Long: `Recalculates test cases and overwrites their stored baselines with the
current engine output. Use after reviewing an intentional behavior change.

Examples:
  bondregress accept --case SYN-001 --case PROD0004
  bondregress accept --all`,
	RunE: runAccept,
}

var (
	acceptCases []string
	acceptAll   bool
)

func init() {
	rootCmd.AddCommand(acceptCmd)

	acceptCmd.Flags().StringSliceVar(&acceptCases, "case", nil, "Test case id to accept (repeatable)")
	acceptCmd.Flags().BoolVar(&acceptAll, "all", false, "Accept every case in the dataset")
}

func runAccept(cmd *cobra.Command, args []string) error {
	if !acceptAll && len(acceptCases) == 0 {
		return fmt.Errorf("nothing to accept: pass --case or --all")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ds, err := dataset.LoadDir(cfg.Dataset.Dir)
	if err != nil {
		return fmt.Errorf("load golden dataset: %w", err)
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

	harness := snapshot.New(rec, store, cfg.Harness.Parallelism, nil)

	var targets []dataset.TestCase
	if acceptAll {
		targets = ds.Cases()
	} else {
		for _, id := range acceptCases {
			tc, ok := ds.Get(id)
			if !ok {
				return fmt.Errorf("test case %s not in golden dataset", id)
			}
			targets = append(targets, tc)
		}
	}

	for _, tc := range targets {
		if err := harness.Accept(cmd.Context(), tc); err != nil {
			return err
		}
	}

	log.Info().Int("accepted", len(targets)).Msg("baselines updated")
	return nil
}
