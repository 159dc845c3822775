// Package models defines data structures for Carteira
package models

import (
	"time"
)

// Category classifies a holding by asset class.
type Category string

const (
	CategoryCrypto          Category = "crypto"
	CategoryStocks          Category = "stocks"
	CategoryFII             Category = "fii"
	CategoryUSAStocks       Category = "usastocks"
	CategoryREITs           Category = "reits"
	CategoryBDR             Category = "bdr"
	CategoryETF             Category = "etf"
	CategoryGold            Category = "gold"
	CategoryCDB             Category = "cdb"
	CategoryLCI             Category = "lci"
	CategoryLCA             Category = "lca"
	CategoryLCILCA          Category = "lcilca"
	CategoryTreasury        Category = "treasury"
	CategorySavings         Category = "savings"
	CategoryDebentures      Category = "debentures"
	CategoryCRICRA          Category = "cricra"
	CategoryFixedIncomeFund Category = "fixedincomefund"
	CategoryCash            Category = "cash"
	CategoryRealEstate      Category = "realestate"
	CategoryOther           Category = "other"
)

// AllCategories lists every valid category, used for input validation.
var AllCategories = []Category{
	CategoryCrypto, CategoryStocks, CategoryFII, CategoryUSAStocks,
	CategoryREITs, CategoryBDR, CategoryETF, CategoryGold,
	CategoryCDB, CategoryLCI, CategoryLCA, CategoryLCILCA,
	CategoryTreasury, CategorySavings, CategoryDebentures, CategoryCRICRA,
	CategoryFixedIncomeFund, CategoryCash, CategoryRealEstate, CategoryOther,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, cat := range AllCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// IsFixedIncome reports whether holdings in this category are valued by
// compound accrual rather than market prices. Real estate is included:
// appreciation is modelled as a fixed annual rate over the purchase value.
func (c Category) IsFixedIncome() bool {
	switch c {
	case CategoryCDB, CategoryLCI, CategoryLCA, CategoryLCILCA,
		CategoryTreasury, CategorySavings, CategoryDebentures,
		CategoryCRICRA, CategoryFixedIncomeFund, CategoryRealEstate:
		return true
	}
	return false
}

// IsUSDDenominated reports whether stored prices for this category are in
// USD and need FX conversion into the display currency.
func (c Category) IsUSDDenominated() bool {
	switch c {
	case CategoryCrypto, CategoryUSAStocks, CategoryREITs, CategoryGold:
		return true
	}
	return false
}

// HasMarketSymbol reports whether holdings in this category can carry a
// ticker resolvable against the market data provider.
func (c Category) HasMarketSymbol() bool {
	switch c {
	case CategoryCrypto, CategoryStocks, CategoryFII, CategoryUSAStocks,
		CategoryREITs, CategoryBDR, CategoryETF, CategoryGold:
		return true
	}
	return false
}

// Market returns the market identifier used when querying price history:
// "crypto", "us" or "br".
func (c Category) Market() string {
	switch c {
	case CategoryCrypto:
		return "crypto"
	case CategoryUSAStocks, CategoryREITs:
		return "us"
	default:
		return "br"
	}
}

// Holding represents a position in one asset.
//
// InvestedAmount, ProfitLoss and ProfitLossPercent are derived fields
// maintained by RecomputeDerived; stored values are never trusted after a
// load without recomputation.
type Holding struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Ticker   string   `json:"ticker,omitempty"`

	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	CurrentPrice float64 `json:"current_price"`

	InvestedAmount    float64 `json:"invested_amount"`
	CurrentValue      float64 `json:"current_value"`
	ProfitLoss        float64 `json:"profit_loss"`
	ProfitLossPercent float64 `json:"profit_loss_percent"`

	// Fixed-income fields. InterestRate is the effective annual percentage
	// after the caller resolved any index-linked rate (CDI, IPCA + spread).
	InterestRate float64    `json:"interest_rate,omitempty"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	MaturityDate *time.Time `json:"maturity_date,omitempty"`

	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecomputeDerived restores the derived-field invariants:
// invested = quantity × averagePrice, profitLoss = currentValue − invested,
// profitLossPercent = profitLoss / invested × 100 (0 when invested is 0).
func (h *Holding) RecomputeDerived() {
	h.InvestedAmount = h.Quantity * h.AveragePrice
	h.ProfitLoss = h.CurrentValue - h.InvestedAmount
	if h.InvestedAmount > 0 {
		h.ProfitLossPercent = h.ProfitLoss / h.InvestedAmount * 100
	} else {
		h.ProfitLossPercent = 0
	}
}

// HasSymbol reports whether the holding carries a ticker usable for market
// data lookups.
func (h *Holding) HasSymbol() bool {
	return h.Category.HasMarketSymbol() && h.Ticker != ""
}
