package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	Username  string          `gorm:"column:username;uniqueIndex"`
	Hash      string          `gorm:"column:hash"`
	Cash      decimal.Decimal `gorm:"column:cash;type:numeric(20,4)"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
