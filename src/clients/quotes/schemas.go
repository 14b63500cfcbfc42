package quotes

import "github.com/shopspring/decimal"

// QuoteResponse is the subset of the provider's quote payload we read.
type QuoteResponse struct {
	Symbol      string           `json:"symbol"`
	CompanyName string           `json:"companyName"`
	LatestPrice *decimal.Decimal `json:"latestPrice"`
}

type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
}
