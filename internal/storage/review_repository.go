package storage

import (
	"context"
	"fmt"

	"github.com/stock-portfolio/internal/models"
)

// ReviewRepository handles stock-list reviews
type ReviewRepository struct {
	db *PostgresDB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *PostgresDB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Exists checks whether the reviewer already reviewed the collection
func (r *ReviewRepository) Exists(ctx context.Context, collectionID, reviewerID int64) (bool, error) {
	var exists bool
	err := r.db.Pool().QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM review
			WHERE collection_id = $1 AND reviewer = $2
		)
	`, collectionID, reviewerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}

	return exists, nil
}

// Create inserts a new review
func (r *ReviewRepository) Create(ctx context.Context, collectionID, reviewerID int64, text string) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO review (collection_id, reviewer, text)
		VALUES ($1, $2, $3)
	`, collectionID, reviewerID, text)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// UpdateText replaces the review text
func (r *ReviewRepository) UpdateText(ctx context.Context, collectionID, reviewerID int64, text string) error {
	result, err := r.db.Pool().Exec(ctx, `
		UPDATE review
		SET text = $3
		WHERE collection_id = $1 AND reviewer = $2
	`, collectionID, reviewerID, text)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("review (%d, %d) not found", collectionID, reviewerID)
	}
	return nil
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, collectionID, reviewerID int64) error {
	result, err := r.db.Pool().Exec(ctx, `
		DELETE FROM review
		WHERE collection_id = $1 AND reviewer = $2
	`, collectionID, reviewerID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("review (%d, %d) not found", collectionID, reviewerID)
	}
	return nil
}

// ListByCollection returns all reviews of a collection with reviewer names
func (r *ReviewRepository) ListByCollection(ctx context.Context, collectionID int64) ([]*models.Review, error) {
	return r.queryReviews(ctx, `
		SELECT rv.collection_id, rv.reviewer, a.username, rv.text, rv.created_at
		FROM review rv
		JOIN account a ON a.account_id = rv.reviewer
		WHERE rv.collection_id = $1
		ORDER BY rv.created_at DESC
	`, collectionID)
}

// ListByCollectionAndReviewer returns only the given reviewer's review of
// the collection. Non-owners viewing a shared list see only their own.
func (r *ReviewRepository) ListByCollectionAndReviewer(ctx context.Context, collectionID, reviewerID int64) ([]*models.Review, error) {
	return r.queryReviews(ctx, `
		SELECT rv.collection_id, rv.reviewer, a.username, rv.text, rv.created_at
		FROM review rv
		JOIN account a ON a.account_id = rv.reviewer
		WHERE rv.collection_id = $1 AND rv.reviewer = $2
	`, collectionID, reviewerID)
}

func (r *ReviewRepository) queryReviews(ctx context.Context, query string, args ...any) ([]*models.Review, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(&review.CollectionID, &review.ReviewerID, &review.ReviewerName, &review.Text, &review.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
