// Package curator selects a bounded, diverse subset of captured calculation
// records for the golden dataset using stratified sampling across price,
// coupon and maturity-horizon dimensions.
package curator

import (
	"github.com/rs/zerolog/log"

	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/records"
)

// Curate picks at most maxCount records from the pool. Selection is
// deterministic for a given input ordering: within each stratum the
// first-seen records win, with no randomness.
//
// Pass 1 fills up to maxCount/5 records per price bucket. Pass 2 tops up
// the remaining budget with at most one still-unselected record per coupon
// bucket, pass 3 with at most one per maturity bucket. Empty buckets are
// skipped; underfilled coverage is acceptable when the pool is sparse.
func Curate(pool []records.CalculationRecord, maxCount int) []records.CalculationRecord {
	if maxCount <= 0 {
		return nil
	}
	if len(pool) <= maxCount {
		return pool
	}

	selected := make(map[int]struct{}, maxCount)
	out := make([]records.CalculationRecord, 0, maxCount)

	// Pass 1: stratify across price levels.
	perBucket := maxCount / priceBucketCount
	priceCounts := make(map[string]int)
	for i, rec := range pool {
		bucket := priceBucket(rec.Input)
		if priceCounts[bucket] >= perBucket {
			continue
		}
		priceCounts[bucket]++
		selected[i] = struct{}{}
		out = append(out, rec)
		if len(out) == maxCount {
			break
		}
	}

	// Pass 2: one extra record per coupon bucket while budget remains.
	if len(out) < maxCount {
		out = fillPass(pool, selected, out, maxCount, couponBucket)
	}

	// Pass 3: one extra record per maturity bucket while budget remains.
	if len(out) < maxCount {
		out = fillPass(pool, selected, out, maxCount, maturityBucket)
	}

	if len(out) > maxCount {
		out = out[:maxCount]
	}

	log.Info().Int("pool", len(pool)).Int("selected", len(out)).Int("max", maxCount).
		Msg("Curated calculation records")
	return out
}

// fillPass adds at most one still-unselected record per bucket, in input
// order, stopping once the budget is reached.
func fillPass(pool []records.CalculationRecord, selected map[int]struct{}, out []records.CalculationRecord, maxCount int, bucketOf func(in engine.CalculationInput) string) []records.CalculationRecord {
	taken := make(map[string]bool)
	for i, rec := range pool {
		if _, ok := selected[i]; ok {
			continue
		}
		bucket := bucketOf(rec.Input)
		if taken[bucket] {
			continue
		}
		taken[bucket] = true
		selected[i] = struct{}{}
		out = append(out, rec)
		if len(out) == maxCount {
			break
		}
	}
	return out
}
