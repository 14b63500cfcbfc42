package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	Stock       string          `db:"stock"`
	Shares      int64           `db:"shares"`
	MoneyMade   decimal.Decimal `db:"money_made"`
	PriceAtSale decimal.Decimal `db:"price_at_sale"`
	Time        time.Time       `db:"time"`
}
