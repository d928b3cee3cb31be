package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/types"
)

// RelationshipRepository handles the social-graph edges. Every method
// expects the pair already normalized to (lo < hi); at most one row exists
// per pair.
type RelationshipRepository struct {
	db *PostgresDB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *PostgresDB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// Get retrieves the relationship row for a normalized pair
func (r *RelationshipRepository) Get(ctx context.Context, userLo, userHi int64) (*models.Relationship, bool, error) {
	var rel models.Relationship
	err := r.db.Pool().QueryRow(ctx, `
		SELECT user1, user2, type, timestamp
		FROM relationship
		WHERE user1 = $1 AND user2 = $2
	`, userLo, userHi).Scan(&rel.UserLo, &rel.UserHi, &rel.Type, &rel.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get relationship: %w", err)
	}

	return &rel, true, nil
}

// Insert creates the relationship row for a pair with no prior history
func (r *RelationshipRepository) Insert(ctx context.Context, userLo, userHi int64, relType types.RelationshipType) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO relationship (user1, user2, type, timestamp)
		VALUES ($1, $2, $3, NOW())
	`, userLo, userHi, relType)
	if err != nil {
		return fmt.Errorf("failed to insert relationship: %w", err)
	}
	return nil
}

// SetType transitions the pair's relationship state and refreshes the
// timestamp
func (r *RelationshipRepository) SetType(ctx context.Context, userLo, userHi int64, relType types.RelationshipType) error {
	result, err := r.db.Pool().Exec(ctx, `
		UPDATE relationship
		SET type = $3, timestamp = NOW()
		WHERE user1 = $1 AND user2 = $2
	`, userLo, userHi, relType)
	if err != nil {
		return fmt.Errorf("failed to update relationship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("relationship (%d, %d) not found", userLo, userHi)
	}
	return nil
}

// IsFriend reports whether the two accounts have an active friendship.
// Accepts the pair in either order.
func (r *RelationshipRepository) IsFriend(ctx context.Context, userA, userB int64) (bool, error) {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}

	var isFriend bool
	err := r.db.Pool().QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM relationship
			WHERE user1 = $1 AND user2 = $2 AND type = 'friend'
		)
	`, lo, hi).Scan(&isFriend)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}

	return isFriend, nil
}

// ListFriendIDs returns the ids of the user's active friends, most recent
// first, with the total count
func (r *RelationshipRepository) ListFriendIDs(ctx context.Context, userID int64, offset, limit int) ([]int64, int, error) {
	query := `
		SELECT user_id
		FROM (
			SELECT user2 AS user_id, timestamp
			FROM relationship
			WHERE user1 = $1 AND type = 'friend'
			UNION
			SELECT user1 AS user_id, timestamp
			FROM relationship
			WHERE user2 = $1 AND type = 'friend'
		) friends
		ORDER BY timestamp DESC
		OFFSET $2 LIMIT $3
	`

	ids, err := r.queryUserIDs(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.Pool().QueryRow(ctx, `
		SELECT COUNT(*)
		FROM relationship
		WHERE (user1 = $1 OR user2 = $1) AND type = 'friend'
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count friends: %w", err)
	}

	return ids, total, nil
}

// ListIncomingRequestIDs returns the ids of users with a pending request
// toward userID, most recent first, with the total count
func (r *RelationshipRepository) ListIncomingRequestIDs(ctx context.Context, userID int64, offset, limit int) ([]int64, int, error) {
	query := `
		SELECT user_id
		FROM (
			SELECT user2 AS user_id, timestamp
			FROM relationship
			WHERE user1 = $1 AND type = 'u2request'
			UNION
			SELECT user1 AS user_id, timestamp
			FROM relationship
			WHERE user2 = $1 AND type = 'u1request'
		) requests
		ORDER BY timestamp DESC
		OFFSET $2 LIMIT $3
	`

	ids, err := r.queryUserIDs(ctx, query, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.Pool().QueryRow(ctx, `
		SELECT COUNT(*)
		FROM relationship
		WHERE (user1 = $1 AND type = 'u2request')
		   OR (user2 = $1 AND type = 'u1request')
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	return ids, total, nil
}

func (r *RelationshipRepository) queryUserIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relationships: %w", err)
	}

	return ids, nil
}

// Now returns the store's clock, so the request cooldown is evaluated
// against the same clock that wrote the rejection timestamp
func (r *RelationshipRepository) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.db.Pool().QueryRow(ctx, `SELECT NOW()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("failed to read store clock: %w", err)
	}
	return now, nil
}
