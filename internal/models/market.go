package models

import "time"

// Quote is a best-effort current market quote for a symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// PricePoint is one historical price observation for a symbol.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}
