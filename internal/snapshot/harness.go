package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantfix/bondregress/internal/dataset"
	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/metrics"
)

// Outcome classifies one regression comparison.
type Outcome string

const (
	// OutcomeNew means no baseline existed; the snapshot was stored as the
	// initial baseline.
	OutcomeNew Outcome = "new"

	// OutcomeMatch means the snapshot equals the stored baseline.
	OutcomeMatch Outcome = "match"

	// OutcomeMismatch means at least one compared field changed.
	OutcomeMismatch Outcome = "mismatch"

	// OutcomeEngineError means the calculation itself failed. Distinct from
	// a mismatch: the engine refusing an input is not a numeric regression.
	OutcomeEngineError Outcome = "engine_error"
)

// Result is the outcome of running one test case through the harness.
type Result struct {
	TestCaseID string        `json:"test_case_id"`
	Outcome    Outcome       `json:"outcome"`
	Diffs      []FieldDiff   `json:"diffs,omitempty"`
	Err        string        `json:"error,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// RunSummary aggregates the results of a full harness run.
type RunSummary struct {
	Total       int           `json:"total"`
	New         int           `json:"new"`
	Matched     int           `json:"matched"`
	Mismatched  int           `json:"mismatched"`
	EngineError int           `json:"engine_errors"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Results     []Result      `json:"results"`
}

// Passed reports whether the run is clean: no mismatches. New baselines and
// engine errors on cases that never had a baseline do not fail a run by
// themselves; mismatches always do.
func (s RunSummary) Passed() bool {
	return s.Mismatched == 0
}

// Calculator produces analytics results for a test case input. Satisfied by
// recorder.Recorder so regression runs feed the capture pipeline too.
type Calculator interface {
	Calculate(ctx context.Context, input engine.CalculationInput) (*engine.AnalyticsResult, error)
}

// Harness runs test cases against the engine and compares the resulting
// snapshots with stored baselines.
type Harness struct {
	calc        Calculator
	store       BaselineStore
	parallelism int
	metrics     *metrics.Registry
}

// New creates a harness. Parallelism below 1 is coerced to 1. A nil metrics
// registry disables instrumentation.
func New(calc Calculator, store BaselineStore, parallelism int, reg *metrics.Registry) *Harness {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Harness{calc: calc, store: store, parallelism: parallelism, metrics: reg}
}

// Snapshot recalculates a test case and returns its comparison projection
// without touching the baseline store.
func (h *Harness) Snapshot(ctx context.Context, tc dataset.TestCase) (Snapshot, error) {
	calcResult, err := h.calc.Calculate(ctx, tc.Input)
	if err != nil {
		return Snapshot{}, fmt.Errorf("calculate %s: %w", tc.ID, err)
	}
	return Build(tc, calcResult), nil
}

// Run executes one test case and compares it against its baseline. A missing
// baseline is written and reported as OutcomeNew. Store failures abort with
// an error wrapping ErrStoreUnavailable.
func (h *Harness) Run(ctx context.Context, tc dataset.TestCase) (Result, error) {
	start := time.Now()
	res := Result{TestCaseID: tc.ID}

	calcResult, err := h.calc.Calculate(ctx, tc.Input)
	if err != nil {
		res.Outcome = OutcomeEngineError
		res.Err = err.Error()
		res.Elapsed = time.Since(start)
		h.observe(res)
		return res, nil
	}

	received := Build(tc, calcResult)

	baseline, err := h.store.Read(ctx, tc.ID)
	if err != nil {
		return Result{}, fmt.Errorf("read baseline for %s: %w", tc.ID, err)
	}

	if baseline == nil {
		if err := h.store.Write(ctx, tc.ID, received); err != nil {
			return Result{}, fmt.Errorf("write initial baseline for %s: %w", tc.ID, err)
		}
		res.Outcome = OutcomeNew
	} else if diffs := received.Diff(*baseline); len(diffs) > 0 {
		res.Outcome = OutcomeMismatch
		res.Diffs = diffs
	} else {
		res.Outcome = OutcomeMatch
	}

	res.Elapsed = time.Since(start)
	h.observe(res)
	return res, nil
}

// Accept recalculates a test case and overwrites its baseline with the fresh
// snapshot. Used after an intentional behavior change has been reviewed.
func (h *Harness) Accept(ctx context.Context, tc dataset.TestCase) error {
	snap, err := h.Snapshot(ctx, tc)
	if err != nil {
		return err
	}
	if err := h.store.Write(ctx, tc.ID, snap); err != nil {
		return fmt.Errorf("accept baseline for %s: %w", tc.ID, err)
	}
	log.Info().Str("test_case", tc.ID).Msg("baseline accepted")
	return nil
}

// RunAll runs every case in the dataset through a worker pool and returns the
// results in dataset order. The first store failure cancels the remaining
// work and aborts the run; individual engine errors do not.
func (h *Harness) RunAll(ctx context.Context, ds *dataset.Dataset) (RunSummary, error) {
	start := time.Now()
	cases := ds.Cases()

	if h.metrics != nil {
		h.metrics.TotalRuns.Inc()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		tc    dataset.TestCase
	}

	jobs := make(chan job)
	results := make([]Result, len(cases))

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		cancel()
	}

	for w := 0; w < h.parallelism; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.metrics != nil {
				h.metrics.ActiveWorkers.Inc()
				defer h.metrics.ActiveWorkers.Dec()
			}
			for j := range jobs {
				res, err := h.Run(runCtx, j.tc)
				if err != nil {
					fail(err)
					return
				}
				results[j.index] = res
			}
		}()
	}

	for i, tc := range cases {
		select {
		case jobs <- job{index: i, tc: tc}:
		case <-runCtx.Done():
		}
		if runCtx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return RunSummary{}, firstErr
	}
	if err := ctx.Err(); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Total: len(cases), Results: results, Elapsed: time.Since(start)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeNew:
			summary.New++
		case OutcomeMatch:
			summary.Matched++
		case OutcomeMismatch:
			summary.Mismatched++
		case OutcomeEngineError:
			summary.EngineError++
		}
	}

	if h.metrics != nil {
		h.metrics.RunDuration.Observe(summary.Elapsed.Seconds())
	}

	log.Info().
		Int("total", summary.Total).
		Int("new", summary.New).
		Int("matched", summary.Matched).
		Int("mismatched", summary.Mismatched).
		Int("engine_errors", summary.EngineError).
		Dur("elapsed", summary.Elapsed).
		Msg("regression run complete")

	return summary, nil
}

// IsStoreUnavailable reports whether err stems from baseline store
// infrastructure rather than from the comparison itself.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func (h *Harness) observe(res Result) {
	if h.metrics == nil {
		return
	}
	h.metrics.Outcomes.WithLabelValues(string(res.Outcome)).Inc()
	h.metrics.CaseDuration.Observe(res.Elapsed.Seconds())
}
