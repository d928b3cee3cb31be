package models

import (
	"time"

	"github.com/stock-portfolio/internal/types"
)

// Relationship is the social-graph edge between two accounts. The pair is
// stored ordered (UserLo < UserHi) so at most one row exists per pair.
type Relationship struct {
	UserLo    int64                  `json:"userLo" db:"user1"`
	UserHi    int64                  `json:"userHi" db:"user2"`
	Type      types.RelationshipType `json:"type" db:"type"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
}
