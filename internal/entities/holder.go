package entities

import "github.com/shopspring/decimal"

// HolderBalance is the total balance one owner address holds of a coin type.
type HolderBalance struct {
	Owner   string          `json:"ownerAddress"`
	Balance decimal.Decimal `json:"balance"`
}
