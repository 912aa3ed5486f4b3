package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayCount identifies the day-count convention carried on a bond's terms.
// The engine's placeholder math only inspects it for tagging purposes; the
// accrual fraction always uses the simplified 365-day year.
type DayCount string

const (
	DayCountThirty360    DayCount = "30/360"
	DayCountActual365    DayCount = "ACT/365"
	DayCountActualActual DayCount = "ACT/ACT"
)

// BondTerms identifies one instrument. Immutable once constructed; the
// identifier is opaque after anonymization.
type BondTerms struct {
	ID         string          `json:"id"`
	CouponRate decimal.Decimal `json:"coupon_rate"` // annual, percent
	Maturity   time.Time       `json:"maturity"`
	FaceValue  decimal.Decimal `json:"face_value"`
	Frequency  int             `json:"frequency"` // coupon payments per year
	DayCount   DayCount        `json:"day_count"`
}

// NewBondTerms builds terms with the conventional defaults: face value 100,
// semi-annual coupons, 30/360 day count.
func NewBondTerms(id string, couponRate decimal.Decimal, maturity time.Time) BondTerms {
	return BondTerms{
		ID:         id,
		CouponRate: couponRate,
		Maturity:   maturity,
		FaceValue:  decimal.NewFromInt(100),
		Frequency:  2,
		DayCount:   DayCountThirty360,
	}
}

// CalculationInput is the full deterministic input to Calculate.
type CalculationInput struct {
	Terms       BondTerms       `json:"terms"`
	MarketPrice decimal.Decimal `json:"market_price"`
	Settlement  time.Time       `json:"settlement"`
}

// Validate checks the static input constraints. Date ordering between
// settlement and maturity is enforced by Calculate itself, where the
// day-count difference is computed.
func (in CalculationInput) Validate() error {
	if !in.Terms.FaceValue.IsPositive() {
		return &InvalidInputError{Field: "face_value", Reason: "must be positive"}
	}
	if in.Terms.Frequency <= 0 {
		return &InvalidInputError{Field: "frequency", Reason: "must be a positive integer"}
	}
	if in.Terms.CouponRate.IsNegative() {
		return &InvalidInputError{Field: "coupon_rate", Reason: "must be non-negative"}
	}
	if !in.MarketPrice.IsPositive() {
		return &InvalidInputError{Field: "market_price", Reason: "must be positive"}
	}
	return nil
}
