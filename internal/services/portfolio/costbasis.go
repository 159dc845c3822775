package portfolio

import (
	"time"

	"github.com/dfarias/carteira/internal/models"
)

// Realized is the outcome of a sell measured against the holding's average
// price at the time of sale.
type Realized struct {
	ProfitLoss        float64
	ProfitLossPercent float64
	CostBasis         float64
	Proceeds          float64
}

// ApplyBuy folds an incoming buy into an existing holding, producing the
// quantity-weighted average cost basis. The average price is the weighted
// mean of all buys regardless of order; invested amount is always
// quantity × average price.
func ApplyBuy(existing models.Holding, quantity, price float64, asOf time.Time) models.Holding {
	h := existing

	totalQuantity := h.Quantity + quantity
	if totalQuantity > 0 {
		h.AveragePrice = (h.Quantity*h.AveragePrice + quantity*price) / totalQuantity
	} else {
		// Degenerate: cannot happen for a real buy, but keep the incoming
		// observation rather than dividing by zero.
		h.AveragePrice = price
	}
	h.Quantity = totalQuantity

	if price > 0 {
		h.CurrentPrice = price
	}
	h.CurrentValue = h.Quantity * h.CurrentPrice
	h.RecomputeDerived()
	h.UpdatedAt = asOf

	return h
}

// ApplySell reduces a holding by the sold quantity. The average price of the
// remaining position never changes on a sell (average-cost convention).
// Selling the full quantity, or more, removes the holding: over-sells are
// accepted and simply empty the position. That permissive policy is
// intentional; callers wanting strict validation check quantities before
// invoking the engine.
func ApplySell(existing models.Holding, quantity, price float64, asOf time.Time) (*models.Holding, Realized) {
	costBasis := quantity * existing.AveragePrice
	proceeds := quantity * price

	realized := Realized{
		CostBasis:  costBasis,
		Proceeds:   proceeds,
		ProfitLoss: proceeds - costBasis,
	}
	if costBasis > 0 {
		realized.ProfitLossPercent = realized.ProfitLoss / costBasis * 100
	}

	remaining := existing.Quantity - quantity
	if remaining <= 0 {
		return nil, realized
	}

	h := existing
	h.Quantity = remaining
	if price > 0 {
		h.CurrentPrice = price
	}
	h.CurrentValue = h.Quantity * h.CurrentPrice
	h.RecomputeDerived()
	h.UpdatedAt = asOf

	return &h, realized
}
