package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Version tags every result with the calculation library that produced it.
// Bump this when the underlying math library is swapped or upgraded; the
// regression harness carries it as context on every snapshot.
const Version = "simplebond-1.0.0"

// ResultPrecision is the number of decimal places every output field is
// rounded to. Fixed so that two runs on different platforms produce
// byte-identical snapshots.
const ResultPrecision = 6

// AnalyticsResult is the fixed-shape output of one engine invocation.
// CalculatedAt is volatile and excluded from snapshot comparisons;
// EngineVersion is informational context, not a pass/fail field.
type AnalyticsResult struct {
	YieldToMaturity  decimal.Decimal `json:"yield_to_maturity"` // percent
	ModifiedDuration decimal.Decimal `json:"modified_duration"`
	MacaulayDuration decimal.Decimal `json:"macaulay_duration"`
	Convexity        decimal.Decimal `json:"convexity"`
	AccruedInterest  decimal.Decimal `json:"accrued_interest"`
	CleanPrice       decimal.Decimal `json:"clean_price"`
	DirtyPrice       decimal.Decimal `json:"dirty_price"`
	CalculatedAt     time.Time       `json:"calculated_at"`
	EngineVersion    string          `json:"engine_version"`
}
