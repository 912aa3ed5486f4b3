package curator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfix/bondregress/internal/engine"
)

// Bucket cut points. Frozen constants: curation must produce the same
// subset for the same input ordering on every run.
var (
	priceDeepDiscount = decimal.NewFromInt(90)
	priceDiscount     = decimal.NewFromInt(98)
	pricePremium      = decimal.NewFromInt(102)
	priceDeepPremium  = decimal.NewFromInt(110)

	couponVeryLow = decimal.NewFromInt(2)
	couponLow     = decimal.NewFromInt(4)
	couponMedium  = decimal.NewFromInt(6)
	couponHigh    = decimal.NewFromInt(8)

	horizonVeryShort = decimal.NewFromInt(2)
	horizonShort     = decimal.NewFromInt(5)
	horizonMedium    = decimal.NewFromInt(10)
	horizonLong      = decimal.NewFromInt(20)

	daysPerYear = decimal.NewFromInt(365)
	hundred     = decimal.NewFromInt(100)
)

// priceBucketCount is the number of price-level strata used to size the
// per-bucket budget in the primary pass.
const priceBucketCount = 5

// priceBucket classifies market price relative to face value, normalized to
// a face of 100. A ratio of exactly 102 counts as par, matching the
// anonymizer's near-par tag boundary.
func priceBucket(in engine.CalculationInput) string {
	ratio := in.MarketPrice.Div(in.Terms.FaceValue).Mul(hundred)
	switch {
	case ratio.LessThan(priceDeepDiscount):
		return "deep-discount"
	case ratio.LessThan(priceDiscount):
		return "discount"
	case ratio.LessThanOrEqual(pricePremium):
		return "par"
	case ratio.LessThan(priceDeepPremium):
		return "premium"
	default:
		return "deep-premium"
	}
}

// couponBucket classifies the annual coupon rate.
func couponBucket(in engine.CalculationInput) string {
	coupon := in.Terms.CouponRate
	switch {
	case coupon.LessThan(couponVeryLow):
		return "very-low"
	case coupon.LessThan(couponLow):
		return "low"
	case coupon.LessThan(couponMedium):
		return "medium"
	case coupon.LessThan(couponHigh):
		return "high"
	default:
		return "very-high"
	}
}

// maturityBucket classifies the horizon between settlement and maturity.
func maturityBucket(in engine.CalculationInput) string {
	days := int64(in.Terms.Maturity.Sub(in.Settlement) / (24 * time.Hour))
	years := decimal.NewFromInt(days).Div(daysPerYear)
	switch {
	case years.LessThan(horizonVeryShort):
		return "very-short"
	case years.LessThan(horizonShort):
		return "short"
	case years.LessThan(horizonMedium):
		return "medium"
	case years.LessThan(horizonLong):
		return "long"
	default:
		return "very-long"
	}
}
