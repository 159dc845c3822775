// Package portfolio implements the valuation and reconciliation engine.
package portfolio

import (
	"strings"

	"github.com/dfarias/carteira/internal/models"
)

// IdentityKey derives the stable identity of a holding within a user's
// collection. Ticker is the preferred anchor when present; the category
// prefix keeps identical symbols in different classes apart (a stock and a
// BDR of the same company are distinct assets).
func IdentityKey(category models.Category, name, ticker string) string {
	if t := NormalizeTicker(ticker); t != "" {
		return string(category) + "|" + t
	}
	return string(category) + "|" + NormalizeName(name)
}

// HoldingKey returns the identity key for a holding.
func HoldingKey(h *models.Holding) string {
	return IdentityKey(h.Category, h.Name, h.Ticker)
}

// NormalizeTicker upper-cases, trims and strips exchange-suffix noise from a
// symbol. "petr4.sa" and "PETR4" resolve to the same asset.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if i := strings.IndexByte(t, '.'); i > 0 {
		t = t[:i]
	}
	return t
}

// NormalizeName lower-cases, trims and collapses internal whitespace so that
// "Tesouro  Selic 2029" and "tesouro selic 2029" match.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
