package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Buy  TransactionType = "buy"
	Sell TransactionType = "sell"
)

// HistoryEntry is one row of the append-only trade ledger.
type HistoryEntry struct {
	ID         int64           `db:"id"`
	UserID     int64           `db:"user_id"`
	Type       TransactionType `db:"type"`
	Time       time.Time       `db:"time"`
	Stock      string          `db:"stock"`
	Shares     int64           `db:"shares"`
	Money      decimal.Decimal `db:"money"`
	SharePrice decimal.Decimal `db:"share_price"`
}

// Total is the value of the entry at its recorded share price.
func (h HistoryEntry) Total() decimal.Decimal {
	return h.SharePrice.Mul(decimal.NewFromInt(h.Shares))
}
