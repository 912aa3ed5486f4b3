// Package snapshot implements the regression oracle: canonical comparison
// projections of analytics results, the baseline store, and the harness
// that compares fresh runs against accepted baselines.
package snapshot

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfix/bondregress/internal/dataset"
	"github.com/quantfix/bondregress/internal/engine"
)

// Snapshot is the canonical comparison projection for one test case: the
// case metadata and inputs (self-documentation) plus the analytics fields
// that must stay stable across library upgrades. The calculation timestamp
// is deliberately absent; the engine version rides along as context and is
// never a pass/fail field.
type Snapshot struct {
	TestCaseID    string                  `json:"test_case_id"`
	Description   string                  `json:"description"`
	Provenance    string                  `json:"provenance"`
	Tags          []string                `json:"tags,omitempty"`
	Input         engine.CalculationInput `json:"input"`
	Results       Results                 `json:"results"`
	EngineVersion string                  `json:"engine_version"`
}

// Results is the stable subset of AnalyticsResult fields.
type Results struct {
	YieldToMaturity  decimal.Decimal `json:"yield_to_maturity"`
	ModifiedDuration decimal.Decimal `json:"modified_duration"`
	MacaulayDuration decimal.Decimal `json:"macaulay_duration"`
	Convexity        decimal.Decimal `json:"convexity"`
	AccruedInterest  decimal.Decimal `json:"accrued_interest"`
	CleanPrice       decimal.Decimal `json:"clean_price"`
	DirtyPrice       decimal.Decimal `json:"dirty_price"`
}

// Build projects a test case and its analytics result into a snapshot.
func Build(tc dataset.TestCase, res *engine.AnalyticsResult) Snapshot {
	return Snapshot{
		TestCaseID:    tc.ID,
		Description:   tc.Description,
		Provenance:    tc.Provenance,
		Tags:          tc.Tags,
		Input:         tc.Input,
		Results: Results{
			YieldToMaturity:  res.YieldToMaturity,
			ModifiedDuration: res.ModifiedDuration,
			MacaulayDuration: res.MacaulayDuration,
			Convexity:        res.Convexity,
			AccruedInterest:  res.AccruedInterest,
			CleanPrice:       res.CleanPrice,
			DirtyPrice:       res.DirtyPrice,
		},
		EngineVersion: res.EngineVersion,
	}
}

// FieldDiff records one field that differs between baseline and received.
type FieldDiff struct {
	Field    string `json:"field"`
	Baseline string `json:"baseline"`
	Received string `json:"received"`
}

// Diff compares the received snapshot against a baseline and returns the
// differing fields: case metadata, inputs, and results. Decimal fields
// compare by value (1.5 equals 1.50), so a formatting-only change in decimal
// rendering is not a regression. The engine version is excluded: it changing
// is exactly the event this system exists to observe, reported as context
// rather than as a failure.
func (received Snapshot) Diff(baseline Snapshot) []FieldDiff {
	var diffs []FieldDiff

	appendDec := func(field string, b, r decimal.Decimal) {
		if !b.Equal(r) {
			diffs = append(diffs, FieldDiff{Field: field, Baseline: b.String(), Received: r.String()})
		}
	}
	appendStr := func(field, b, r string) {
		if b != r {
			diffs = append(diffs, FieldDiff{Field: field, Baseline: b, Received: r})
		}
	}
	appendTime := func(field string, b, r time.Time) {
		if !b.Equal(r) {
			diffs = append(diffs, FieldDiff{
				Field:    field,
				Baseline: b.UTC().Format(time.RFC3339),
				Received: r.UTC().Format(time.RFC3339),
			})
		}
	}

	appendStr("description", baseline.Description, received.Description)
	appendStr("provenance", baseline.Provenance, received.Provenance)
	appendStr("tags", strings.Join(baseline.Tags, ","), strings.Join(received.Tags, ","))

	appendStr("input.terms.id", baseline.Input.Terms.ID, received.Input.Terms.ID)
	appendDec("input.terms.coupon_rate", baseline.Input.Terms.CouponRate, received.Input.Terms.CouponRate)
	appendTime("input.terms.maturity", baseline.Input.Terms.Maturity, received.Input.Terms.Maturity)
	appendDec("input.terms.face_value", baseline.Input.Terms.FaceValue, received.Input.Terms.FaceValue)
	if baseline.Input.Terms.Frequency != received.Input.Terms.Frequency {
		diffs = append(diffs, FieldDiff{
			Field:    "input.terms.frequency",
			Baseline: strconv.Itoa(baseline.Input.Terms.Frequency),
			Received: strconv.Itoa(received.Input.Terms.Frequency),
		})
	}
	appendStr("input.terms.day_count", string(baseline.Input.Terms.DayCount), string(received.Input.Terms.DayCount))
	appendDec("input.market_price", baseline.Input.MarketPrice, received.Input.MarketPrice)
	appendTime("input.settlement", baseline.Input.Settlement, received.Input.Settlement)

	appendDec("results.yield_to_maturity", baseline.Results.YieldToMaturity, received.Results.YieldToMaturity)
	appendDec("results.modified_duration", baseline.Results.ModifiedDuration, received.Results.ModifiedDuration)
	appendDec("results.macaulay_duration", baseline.Results.MacaulayDuration, received.Results.MacaulayDuration)
	appendDec("results.convexity", baseline.Results.Convexity, received.Results.Convexity)
	appendDec("results.accrued_interest", baseline.Results.AccruedInterest, received.Results.AccruedInterest)
	appendDec("results.clean_price", baseline.Results.CleanPrice, received.Results.CleanPrice)
	appendDec("results.dirty_price", baseline.Results.DirtyPrice, received.Results.DirtyPrice)

	return diffs
}

// Matches reports structural equality of the comparison projection.
func (received Snapshot) Matches(baseline Snapshot) bool {
	return len(received.Diff(baseline)) == 0
}
