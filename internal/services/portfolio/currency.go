package portfolio

import (
	"github.com/dfarias/carteira/internal/models"
)

// GramsPerTroyOunce converts gold quotes (USD per troy ounce) to the
// per-gram basis that gold holdings are recorded in.
const GramsPerTroyOunce = 31.1034768

// ToDisplayCurrency converts an amount from a holding's native currency to
// the display currency. USD-denominated categories multiply by the FX rate;
// gold additionally converts from per-ounce quotes to per-gram holdings.
//
// This is the single conversion call site for every aggregate: totals,
// per-category breakdowns and time series all route through here so the
// views can never disagree on conversion.
func ToDisplayCurrency(amount float64, category models.Category, fxRate float64) float64 {
	if !category.IsUSDDenominated() {
		return amount
	}
	if fxRate <= 0 {
		fxRate = 1
	}
	if category == models.CategoryGold {
		return amount * fxRate / GramsPerTroyOunce
	}
	return amount * fxRate
}
