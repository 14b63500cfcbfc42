package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the aggregate open position of a user in one ticker.
type Holding struct {
	ID              int64           `db:"id"`
	UserID          int64           `db:"user_id"`
	Stock           string          `db:"stock"`
	Shares          int64           `db:"shares"`
	TotalCost       decimal.Decimal `db:"total_cost"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase"`
	Time            time.Time       `db:"time"`
}
