package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stock-portfolio/internal/models"
)

// HoldingRepository handles the (collection, symbol) share positions
type HoldingRepository struct {
	db *PostgresDB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *PostgresDB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// SharesForUpdate returns the current share count for (collection, symbol)
// and locks the row for the transaction. A missing row is (0, false, nil).
func (r *HoldingRepository) SharesForUpdate(ctx context.Context, tx pgx.Tx, collectionID int64, symbol string) (int64, bool, error) {
	var shares int64
	err := tx.QueryRow(ctx, `
		SELECT shares
		FROM in_collection
		WHERE collection_id = $1 AND symbol = $2
		FOR UPDATE
	`, collectionID, symbol).Scan(&shares)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get holding: %w", err)
	}

	return shares, true, nil
}

// Insert creates a new holding row
func (r *HoldingRepository) Insert(ctx context.Context, q Querier, collectionID int64, symbol string, shares int64) error {
	q = r.db.querier(q)
	_, err := q.Exec(ctx, `
		INSERT INTO in_collection (collection_id, symbol, shares)
		VALUES ($1, $2, $3)
	`, collectionID, symbol, shares)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}
	return nil
}

// UpdateShares sets the share count on an existing holding row
func (r *HoldingRepository) UpdateShares(ctx context.Context, q Querier, collectionID int64, symbol string, shares int64) error {
	q = r.db.querier(q)
	result, err := q.Exec(ctx, `
		UPDATE in_collection
		SET shares = $3
		WHERE collection_id = $1 AND symbol = $2
	`, collectionID, symbol, shares)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("holding (%d, %s) not found", collectionID, symbol)
	}
	return nil
}

// Delete removes a holding row; used when a position reaches zero shares
func (r *HoldingRepository) Delete(ctx context.Context, q Querier, collectionID int64, symbol string) error {
	q = r.db.querier(q)
	result, err := q.Exec(ctx, `
		DELETE FROM in_collection
		WHERE collection_id = $1 AND symbol = $2
	`, collectionID, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("holding (%d, %s) not found", collectionID, symbol)
	}
	return nil
}

// ListQuotes returns a collection's holdings joined against each symbol's
// latest price bar
func (r *HoldingRepository) ListQuotes(ctx context.Context, collectionID int64) ([]*models.HoldingQuote, error) {
	query := `
		SELECT h.symbol, h.shares, sh.close
		FROM in_collection h
		JOIN (
			SELECT symbol, MAX(date) AS date
			FROM stock_history
			GROUP BY symbol
		) latest ON latest.symbol = h.symbol
		JOIN stock_history sh ON sh.symbol = latest.symbol AND sh.date = latest.date
		WHERE h.collection_id = $1
		ORDER BY h.symbol
	`

	rows, err := r.db.Pool().Query(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var quotes []*models.HoldingQuote
	for rows.Next() {
		var quote models.HoldingQuote
		if err := rows.Scan(&quote.Symbol, &quote.Shares, &quote.Price); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		quotes = append(quotes, &quote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return quotes, nil
}
