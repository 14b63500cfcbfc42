package services

import (
	"finance/src/models"

	"github.com/shopspring/decimal"
)

// SharesHeld sums the shares of symbol across holdings and reports whether any holding matched.
func SharesHeld(holdings []models.Holding, symbol string) (int64, bool) {
	symbol = NormalizeSymbol(symbol)
	var total int64
	found := false
	for _, h := range holdings {
		if NormalizeSymbol(h.Stock) != symbol {
			continue
		}
		found = true
		total += h.Shares
	}
	return total, found
}

// HasSufficientHolding reports whether holdings contain at least qty shares of symbol.
func HasSufficientHolding(holdings []models.Holding, symbol string, qty int64) bool {
	if qty <= 0 {
		return false
	}
	held, found := SharesHeld(holdings, symbol)
	return found && held >= qty
}

// checkHolding explains why a sale of qty shares of symbol cannot go through, if it cannot.
func checkHolding(holdings []models.Holding, symbol string, qty int64) error {
	if HasSufficientHolding(holdings, symbol, qty) {
		return nil
	}
	held, found := SharesHeld(holdings, symbol)
	if !found || held == 0 {
		return newError(ErrNoSuchHolding, "you do not own any shares of "+symbol)
	}
	return newError(ErrInsufficientShares, "you only own "+decimal.NewFromInt(held).String()+" shares of "+symbol)
}

// addShares merges a purchase into the holding, keeping the average cost per share.
func addShares(h *models.Holding, shares int64, cost decimal.Decimal) {
	h.Shares += shares
	h.TotalCost = h.TotalCost.Add(cost)
	h.PriceAtPurchase = h.TotalCost.Div(decimal.NewFromInt(h.Shares)).Round(4)
}

// removeShares takes shares out of the holding, reducing the cost basis proportionally.
// It reports whether the position is now empty.
func removeShares(h *models.Holding, shares int64) bool {
	remaining := h.Shares - shares
	if remaining <= 0 {
		h.Shares = 0
		h.TotalCost = decimal.Zero
		return true
	}
	h.TotalCost = h.TotalCost.Mul(decimal.NewFromInt(remaining)).Div(decimal.NewFromInt(h.Shares)).Round(4)
	h.Shares = remaining
	return false
}
