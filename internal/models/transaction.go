package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one append-only ledger row. CashDelta is negative for a
// buy and positive for a sell; the sum of all cash deltas added to the
// initial balance always equals the current portfolio balance.
type Transaction struct {
	ID           int64           `json:"id" db:"transaction_id"`
	CollectionID int64           `json:"collectionId" db:"collection_id"`
	Symbol       string          `json:"symbol" db:"symbol"`
	Shares       int64           `json:"shares" db:"shares"`
	CashDelta    decimal.Decimal `json:"cashDelta" db:"delta"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}
