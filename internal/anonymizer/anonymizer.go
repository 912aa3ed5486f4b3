// Package anonymizer converts curated calculation records into shareable
// test cases, replacing the instrument identifier with a sequential
// synthetic one and deriving a description and tag set from the record's
// characteristics.
package anonymizer

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfix/bondregress/internal/dataset"
	"github.com/quantfix/bondregress/internal/engine"
	"github.com/quantfix/bondregress/internal/records"
)

// Descriptor and tag thresholds. Fixed constants, reproduced exactly for
// test parity; not configurable.
var (
	discountCut = decimal.NewFromInt(98)
	premiumCut  = decimal.NewFromInt(102)

	yieldLowCut  = decimal.NewFromInt(4)
	yieldHighCut = decimal.NewFromInt(6)

	shortTermCut    = decimal.NewFromInt(2)
	mediumTermCut   = decimal.NewFromInt(5)
	intermediateCut = decimal.NewFromInt(10)

	deepDiscountTag = decimal.NewFromInt(90)
	discountTag     = decimal.NewFromInt(98)
	premiumTag      = decimal.NewFromInt(102)
	deepPremiumTag  = decimal.NewFromInt(110)

	lowCouponTag  = decimal.NewFromInt(3)
	highCouponTag = decimal.NewFromInt(7)

	shortDurationTag = decimal.NewFromInt(2)
	longDurationTag  = decimal.NewFromInt(10)

	daysPerYear = decimal.NewFromInt(365)
	hundred     = decimal.NewFromInt(100)
)

// Clock supplies test case creation timestamps (injectable for testing).
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Anonymizer assigns sequential synthetic identifiers. The counter is scoped
// to one instance, constructed per curation run; it is not persisted
// anywhere, which keeps anonymization reproducible in isolation.
type Anonymizer struct {
	mu      sync.Mutex
	counter int
	clock   Clock
}

// New creates an anonymizer whose counter starts at 1.
func New() *Anonymizer {
	return &Anonymizer{clock: realClock{}}
}

// SetClock sets the clock implementation (for testing).
func (a *Anonymizer) SetClock(clock Clock) {
	a.clock = clock
}

// Anonymize converts one successful calculation record into a test case with
// the given id. The n-th call on this instance produces the synthetic
// instrument identifier ANON + zero-padded 6-digit counter. Failed records
// are rejected; callers must filter to successful records first.
func (a *Anonymizer) Anonymize(rec records.CalculationRecord, testCaseID string) (dataset.TestCase, error) {
	if !rec.Success {
		return dataset.TestCase{}, fmt.Errorf("cannot anonymize failed calculation record %s", rec.CorrelationID)
	}

	a.mu.Lock()
	a.counter++
	syntheticID := fmt.Sprintf("ANON%06d", a.counter)
	a.mu.Unlock()

	input := rec.Input
	input.Terms.ID = syntheticID

	return dataset.TestCase{
		ID:          testCaseID,
		Description: describe(rec.Input),
		Input:       input,
		Provenance:  dataset.ProvenanceProduction,
		Tags:        deriveTags(rec.Input),
		CreatedAt:   a.clock.Now().UTC(),
	}, nil
}

// describe concatenates the three independent descriptors into one sentence.
func describe(in engine.CalculationInput) string {
	ratio := priceRatio(in)
	priceType := "par"
	if ratio.LessThan(discountCut) {
		priceType = "discount"
	} else if ratio.GreaterThan(premiumCut) {
		priceType = "premium"
	}

	yieldType := "medium"
	if in.Terms.CouponRate.LessThan(yieldLowCut) {
		yieldType = "low"
	} else if in.Terms.CouponRate.GreaterThan(yieldHighCut) {
		yieldType = "high"
	}

	years := horizonYears(in)
	durationType := "long-term"
	switch {
	case years.LessThan(shortTermCut):
		durationType = "short-term"
	case years.LessThan(mediumTermCut):
		durationType = "medium-term"
	case years.LessThan(intermediateCut):
		durationType = "intermediate"
	}

	return fmt.Sprintf("%s bond with %s coupon and %s maturity profile",
		strings.ToUpper(priceType[:1])+priceType[1:], yieldType, durationType)
}

// deriveTags builds the category tag set for a record.
func deriveTags(in engine.CalculationInput) []string {
	tags := []string{"anonymized"}

	ratio := priceRatio(in)
	switch {
	case ratio.LessThan(deepDiscountTag):
		tags = append(tags, "deep-discount")
	case ratio.LessThan(discountTag):
		tags = append(tags, "discount")
	case ratio.LessThanOrEqual(premiumTag):
		tags = append(tags, "near-par")
	case ratio.LessThan(deepPremiumTag):
		tags = append(tags, "premium")
	default:
		tags = append(tags, "deep-premium")
	}

	if in.Terms.CouponRate.LessThan(lowCouponTag) {
		tags = append(tags, "low-coupon")
	} else if in.Terms.CouponRate.GreaterThan(highCouponTag) {
		tags = append(tags, "high-coupon")
	}

	years := horizonYears(in)
	if years.LessThan(shortDurationTag) {
		tags = append(tags, "short-duration")
	} else if years.GreaterThan(longDurationTag) {
		tags = append(tags, "long-duration")
	}

	if strings.Contains(strings.ToLower(string(in.Terms.DayCount)), "act") {
		tags = append(tags, "actual-daycount")
	}

	return tags
}

func priceRatio(in engine.CalculationInput) decimal.Decimal {
	return in.MarketPrice.Div(in.Terms.FaceValue).Mul(hundred)
}

func horizonYears(in engine.CalculationInput) decimal.Decimal {
	days := int64(in.Terms.Maturity.Sub(in.Settlement) / (24 * time.Hour))
	return decimal.NewFromInt(days).Div(daysPerYear)
}
