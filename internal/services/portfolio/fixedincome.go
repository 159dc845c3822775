package portfolio

import (
	"math"
	"time"
)

// hoursPerYear uses the 365-day convention of the accrual formula.
const hoursPerYear = 365 * 24

// CompoundValue computes the compounded value of a fixed-income position:
// invested × (1 + rate/100)^years, with years = elapsed time since purchase
// on a 365-day basis. Before the purchase date (or at it) the value is the
// invested amount unchanged.
//
// The rate is an effective annual percentage; CDI-linked, IPCA+spread and
// prefixed rates are resolved by the caller before this point; the accrual
// itself is index-agnostic. Callers must re-evaluate with a fresh asOf on
// every read: a cached value silently drifts from the true compounded one.
func CompoundValue(invested, annualRatePct float64, purchase, asOf time.Time) float64 {
	if invested <= 0 {
		return 0
	}

	years := asOf.Sub(purchase).Hours() / hoursPerYear
	if years <= 0 || annualRatePct == 0 {
		return invested
	}

	return invested * math.Pow(1+annualRatePct/100, years)
}
