package models

import "time"

// Period selects the window and granularity of a portfolio value series.
type Period string

const (
	Period24h    Period = "24h"
	PeriodWeek   Period = "1w"
	PeriodMonth  Period = "1m"
	Period3Month Period = "3m"
	Period6Month Period = "6m"
	PeriodYear   Period = "1y"
	PeriodAll    Period = "all"
)

// ParsePeriod maps a request string to a Period, defaulting to one month.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case Period24h, PeriodWeek, PeriodMonth, Period3Month, Period6Month, PeriodYear, PeriodAll:
		return Period(s)
	case "7d":
		return PeriodWeek
	case "30d":
		return PeriodMonth
	default:
		return PeriodMonth
	}
}

// Duration returns the nominal length of the period. PeriodAll maps to five
// years; callers clamp to the earliest purchase date.
func (p Period) Duration() time.Duration {
	switch p {
	case Period24h:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	case Period3Month:
		return 91 * 24 * time.Hour
	case Period6Month:
		return 182 * 24 * time.Hour
	case PeriodYear:
		return 365 * 24 * time.Hour
	default:
		return 5 * 365 * 24 * time.Hour
	}
}

// SeriesPoint is a single point in the reconstructed portfolio value series.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
	Value float64   `json:"value"`
}

// CategoryTotal aggregates value and profit for one asset category.
type CategoryTotal struct {
	Category      Category `json:"category"`
	InvestedValue float64  `json:"invested_value"`
	CurrentValue  float64  `json:"current_value"`
	ProfitLoss    float64  `json:"profit_loss"`
	HoldingCount  int      `json:"holding_count"`
}

// Summary is the aggregated portfolio view in the display currency.
type Summary struct {
	TotalInvested     float64         `json:"total_invested"`
	TotalValue        float64         `json:"total_value"`
	ProfitLoss        float64         `json:"profit_loss"`
	ProfitLossPercent float64         `json:"profit_loss_percent"`
	HoldingCount      int             `json:"holding_count"`
	FXRate            float64         `json:"fx_rate"`
	Categories        []CategoryTotal `json:"categories"`
	ComputedAt        time.Time       `json:"computed_at"`
}
