package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/types"
)

// Collection is the umbrella entity for a portfolio or stock list.
// Exactly one kind-specific extension exists per collection row: Balance is
// set for portfolios, Visibility for stock lists.
type Collection struct {
	ID         int64                `json:"id" db:"collection_id"`
	Name       string               `json:"name" db:"name"`
	OwnerID    int64                `json:"ownerId" db:"owner"`
	Kind       types.CollectionKind `json:"kind"`
	Balance    *decimal.Decimal     `json:"balance,omitempty"`
	Visibility *types.Visibility    `json:"visibility,omitempty"`
	CreatedAt  time.Time            `json:"createdAt" db:"created_at"`
}
