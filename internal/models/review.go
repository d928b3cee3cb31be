package models

import (
	"time"
)

// Review is one account's review of a stock list; at most one exists per
// (collection, reviewer) pair.
type Review struct {
	CollectionID int64     `json:"collectionId" db:"collection_id"`
	ReviewerID   int64     `json:"reviewer" db:"reviewer"`
	ReviewerName string    `json:"reviewerName,omitempty"`
	Text         string    `json:"text" db:"text"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
