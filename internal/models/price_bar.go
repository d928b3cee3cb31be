package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one trading day's OHLCV record for a symbol, immutable once
// written. Close may be null for halted days.
type PriceBar struct {
	Symbol string           `json:"symbol" db:"symbol"`
	Date   time.Time        `json:"date" db:"date"`
	Open   *decimal.Decimal `json:"open,omitempty" db:"open"`
	High   *decimal.Decimal `json:"high,omitempty" db:"high"`
	Low    *decimal.Decimal `json:"low,omitempty" db:"low"`
	Close  *decimal.Decimal `json:"close,omitempty" db:"close"`
	Volume *int64           `json:"volume,omitempty" db:"volume"`
}
