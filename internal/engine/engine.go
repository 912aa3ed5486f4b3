// Package engine prices bonds with deliberately simplified analytics math.
//
// The formulas below are placeholders for whatever real analytics library is
// wrapped in production. They are NOT financially accurate and must not be
// "corrected": the value of this engine is regression stability, so the
// stated formulas are frozen as the comparison contract. Any change to them
// is a library upgrade and must bump Version.
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// daysPerYear is the fixed year-length constant used for all day-count math.
var daysPerYear = decimal.NewFromInt(365)

var (
	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// Clock supplies the result timestamp (injectable for deterministic tests).
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using real time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Engine computes bond analytics. It holds no mutable state besides the
// injectable clock; Calculate is a pure function of its input and Version.
type Engine struct {
	clock Clock
}

// New creates an engine with the real clock.
func New() *Engine {
	return &Engine{clock: RealClock{}}
}

// SetClock sets the clock implementation (for testing).
func (e *Engine) SetClock(clock Clock) {
	e.clock = clock
}

// Calculate prices one bond. Given identical input and identical engine
// version, the rounded output is byte-for-byte identical across runs and
// platforms. Settlement on or after maturity fails with InvalidInputError
// rather than producing a division by zero.
func (e *Engine) Calculate(input CalculationInput) (*AnalyticsResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	days := wholeDaysBetween(input.Settlement, input.Terms.Maturity)
	if days <= 0 {
		return nil, &InvalidInputError{Field: "settlement", Reason: "must be before maturity"}
	}

	years := decimal.NewFromInt(days).Div(daysPerYear)
	frequency := decimal.NewFromInt(int64(input.Terms.Frequency))
	face := input.Terms.FaceValue
	price := input.MarketPrice

	// Annual coupon amount from the percentage rate.
	annualCoupon := face.Mul(input.Terms.CouponRate).Div(hundred)

	// Closed-form yield approximation, expressed as a percentage:
	// YTM = (coupon + (face - price)/years) / ((face + price)/2) * 100
	ytm := annualCoupon.Add(face.Sub(price).Div(years)).
		Div(face.Add(price).Div(two)).
		Mul(hundred)

	// Accrued interest over the simplified day-count fraction of one coupon
	// period. Exact coupon boundaries accrue nothing.
	periodDays := daysPerYear.Div(frequency)
	remainder := decimal.NewFromInt(days).Mod(periodDays)
	accruedDays := decimal.Zero
	if !remainder.IsZero() {
		accruedDays = periodDays.Sub(remainder)
	}
	accrued := annualCoupon.Div(frequency).Mul(accruedDays).Div(periodDays)

	clean := price
	dirty := price.Add(accrued)

	macaulay, err := macaulayDuration(years, frequency, annualCoupon, face, ytm)
	if err != nil {
		return nil, err
	}

	perPeriodYield := ytm.Div(hundred).Div(frequency)
	modified := macaulay.Div(one.Add(perPeriodYield))

	// Simplified convexity: years * (years + 1/frequency). A function of
	// maturity horizon and coupon frequency only.
	convexity := years.Mul(years.Add(one.Div(frequency)))

	return &AnalyticsResult{
		YieldToMaturity:  ytm.Round(ResultPrecision),
		ModifiedDuration: modified.Round(ResultPrecision),
		MacaulayDuration: macaulay.Round(ResultPrecision),
		Convexity:        convexity.Round(ResultPrecision),
		AccruedInterest:  accrued.Round(ResultPrecision),
		CleanPrice:       clean.Round(ResultPrecision),
		DirtyPrice:       dirty.Round(ResultPrecision),
		CalculatedAt:     e.clock.Now().UTC(),
		EngineVersion:    Version,
	}, nil
}

// macaulayDuration sums a coupon-flow contribution and a principal
// contribution, each discounted at the computed yield compounded at the
// payment frequency, and normalizes by the total present value.
func macaulayDuration(years, frequency, annualCoupon, face, ytm decimal.Decimal) (decimal.Decimal, error) {
	periods := years.Mul(frequency).Round(0).IntPart()
	if periods < 1 {
		periods = 1
	}

	perPeriodYield := ytm.Div(hundred).Div(frequency)
	discountBase := one.Add(perPeriodYield)
	if !discountBase.IsPositive() {
		return decimal.Zero, &InvalidInputError{Field: "market_price", Reason: "implies a yield below -100% per period"}
	}
	couponPerPeriod := annualCoupon.Div(frequency)

	pvTotal := decimal.Zero
	weighted := decimal.Zero
	for t := int64(1); t <= periods; t++ {
		factor, err := discountBase.PowInt32(int32(t))
		if err != nil {
			return decimal.Zero, err
		}
		pv := couponPerPeriod.Div(factor)
		pvTotal = pvTotal.Add(pv)
		weighted = weighted.Add(pv.Mul(decimal.NewFromInt(t)).Div(frequency))
	}

	principalFactor, err := discountBase.PowInt32(int32(periods))
	if err != nil {
		return decimal.Zero, err
	}
	principalPV := face.Div(principalFactor)
	pvTotal = pvTotal.Add(principalPV)
	weighted = weighted.Add(principalPV.Mul(decimal.NewFromInt(periods)).Div(frequency))

	return weighted.Div(pvTotal), nil
}

// wholeDaysBetween truncates the difference to whole days.
func wholeDaysBetween(from, to time.Time) int64 {
	return int64(to.Sub(from) / (24 * time.Hour))
}
