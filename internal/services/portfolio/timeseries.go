package portfolio

import (
	"sort"
	"time"

	"github.com/dfarias/carteira/internal/models"
)

// BuildSeries reconstructs the portfolio value over the requested period,
// one point per sampling interval, time ascending. histories maps holding
// IDs to their available price observations (oldest first); holdings missing
// from the map fall back to smoothed interpolation, so one unavailable
// symbol never blocks the rest.
//
// The final point is always pinned to the live current total rather than an
// interpolated estimate; the chart must agree with the summary figures.
func BuildSeries(holdings []models.Holding, period models.Period, histories map[string][]models.PricePoint, fxRate float64, now time.Time) []models.SeriesPoint {
	if len(holdings) == 0 {
		return nil
	}

	start := now.Add(-period.Duration())
	if period == models.PeriodAll {
		if earliest := earliestPurchase(holdings); !earliest.IsZero() && earliest.After(start) {
			start = earliest
		}
	}

	timestamps := sampleTimestamps(start, now, period)
	if len(timestamps) == 0 {
		return nil
	}

	labelFor := labelFormatter(period)
	points := make([]models.SeriesPoint, 0, len(timestamps))
	for _, ts := range timestamps {
		var total float64
		for i := range holdings {
			total += holdingValueAt(&holdings[i], ts, period, histories[holdings[i].ID], fxRate, now)
		}
		points = append(points, models.SeriesPoint{
			Date:  ts,
			Label: labelFor(ts),
			Value: total,
		})
	}

	// Pin the last point to the authoritative live total.
	points[len(points)-1].Value = CurrentTotal(holdings, fxRate, now)

	return points
}

// CurrentTotal computes the live portfolio value in the display currency.
// Fixed income is recompounded as of now; everything else uses the last
// known market value.
func CurrentTotal(holdings []models.Holding, fxRate float64, now time.Time) float64 {
	var total float64
	for i := range holdings {
		h := &holdings[i]
		if h.Category.IsFixedIncome() {
			total += CompoundValue(h.InvestedAmount, h.InterestRate, purchaseOrDefault(h, models.PeriodYear, now), now)
			continue
		}
		total += ToDisplayCurrency(h.CurrentValue, h.Category, fxRate)
	}
	return total
}

// holdingValueAt computes one holding's contribution at a point in time:
// compound accrual for fixed income, interpolated market price when history
// is available, and smoothed interpolation between invested amount and
// current value otherwise. The smoothed path is a presentational
// approximation of growth, not a market fact.
func holdingValueAt(h *models.Holding, ts time.Time, period models.Period, history []models.PricePoint, fxRate float64, now time.Time) float64 {
	purchase := purchaseOrDefault(h, period, now)
	if ts.Before(purchase) {
		return 0
	}

	if h.Category.IsFixedIncome() {
		return CompoundValue(h.InvestedAmount, h.InterestRate, purchase, ts)
	}

	if h.HasSymbol() && len(history) > 0 {
		price := interpolatePrice(history, ts)
		return ToDisplayCurrency(h.Quantity*price, h.Category, fxRate)
	}

	// No history: ease between invested amount and current value as a
	// function of elapsed-time fraction since purchase.
	invested := ToDisplayCurrency(h.InvestedAmount, h.Category, fxRate)
	current := ToDisplayCurrency(h.CurrentValue, h.Category, fxRate)

	span := now.Sub(purchase)
	if span <= 0 {
		return current
	}
	frac := float64(ts.Sub(purchase)) / float64(span)
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}

	return invested + (current-invested)*smoothstep(frac)
}

// smoothstep is the ease-in-out curve 3t²−2t³ on [0,1].
func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

// interpolatePrice returns the price at ts by linear interpolation between
// the two bracketing observations, clamped to the first/last observation
// outside the history's range. history must be sorted oldest first.
func interpolatePrice(history []models.PricePoint, ts time.Time) float64 {
	if len(history) == 1 {
		return history[0].Price
	}

	first, last := history[0], history[len(history)-1]
	if !ts.After(first.Date) {
		return first.Price
	}
	if !ts.Before(last.Date) {
		return last.Price
	}

	// Index of the first observation at or after ts.
	hi := sort.Search(len(history), func(i int) bool {
		return !history[i].Date.Before(ts)
	})
	lo := hi - 1

	a, b := history[lo], history[hi]
	span := b.Date.Sub(a.Date)
	if span <= 0 {
		return b.Price
	}
	frac := float64(ts.Sub(a.Date)) / float64(span)

	return a.Price + (b.Price-a.Price)*frac
}

// purchaseOrDefault returns the holding's purchase date, or "one
// period-equivalent ago" when none was recorded; a missing date degrades
// the curve shape, never the whole series.
func purchaseOrDefault(h *models.Holding, period models.Period, now time.Time) time.Time {
	if h.PurchaseDate != nil && !h.PurchaseDate.IsZero() {
		return *h.PurchaseDate
	}
	return now.Add(-period.Duration())
}

// earliestPurchase scans holdings for the oldest recorded purchase date.
func earliestPurchase(holdings []models.Holding) time.Time {
	var earliest time.Time
	for i := range holdings {
		pd := holdings[i].PurchaseDate
		if pd == nil || pd.IsZero() {
			continue
		}
		if earliest.IsZero() || pd.Before(earliest) {
			earliest = *pd
		}
	}
	return earliest
}

// sampleTimestamps produces the sampling grid for a period: hourly inside a
// day, daily up to a month, weekly up to six months, monthly beyond. The
// grid always ends exactly at `end`.
func sampleTimestamps(start, end time.Time, period models.Period) []time.Time {
	if end.Before(start) {
		return nil
	}

	var step time.Duration
	switch period {
	case models.Period24h:
		step = time.Hour
	case models.PeriodWeek, models.PeriodMonth:
		step = 24 * time.Hour
	case models.Period3Month, models.Period6Month:
		step = 7 * 24 * time.Hour
	default:
		step = 30 * 24 * time.Hour
	}

	timestamps := make([]time.Time, 0, int(end.Sub(start)/step)+2)
	for ts := start; ts.Before(end); ts = ts.Add(step) {
		timestamps = append(timestamps, ts)
	}
	timestamps = append(timestamps, end)

	return timestamps
}

// labelFormatter returns the date-label function for a period's granularity.
func labelFormatter(period models.Period) func(time.Time) string {
	switch period {
	case models.Period24h:
		return func(ts time.Time) string { return ts.Format("15:04") }
	case models.PeriodWeek, models.PeriodMonth, models.Period3Month, models.Period6Month:
		return func(ts time.Time) string { return ts.Format("02 Jan") }
	default:
		return func(ts time.Time) string { return ts.Format("Jan 06") }
	}
}
