package models

import (
	"github.com/shopspring/decimal"
)

// Holding is a (collection, symbol) position. Shares is never zero: a
// position that reaches zero is deleted rather than stored.
type Holding struct {
	CollectionID int64  `json:"collectionId" db:"collection_id"`
	Symbol       string `json:"symbol" db:"symbol"`
	Shares       int64  `json:"shares" db:"shares"`
}

// HoldingQuote is a holding joined with the latest available close price
type HoldingQuote struct {
	Symbol string          `json:"symbol"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
}
