package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/models"
)

// TransactionRepository handles the append-only portfolio transaction log
type TransactionRepository struct {
	db *PostgresDB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *PostgresDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Append writes one transaction-log row. Runs on the ledger's transaction
// so the row commits together with the holding and balance mutations.
func (r *TransactionRepository) Append(ctx context.Context, q Querier, collectionID int64, symbol string, shares int64, cashDelta decimal.Decimal) error {
	q = r.db.querier(q)
	_, err := q.Exec(ctx, `
		INSERT INTO transaction (collection_id, symbol, shares, delta)
		VALUES ($1, $2, $3, $4)
	`, collectionID, symbol, shares, cashDelta)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// ListByCollection returns a portfolio's transactions newest-first with
// the total count
func (r *TransactionRepository) ListByCollection(ctx context.Context, collectionID int64) ([]*models.Transaction, int, error) {
	query := `
		SELECT transaction_id, collection_id, symbol, shares, delta, timestamp
		FROM transaction
		WHERE collection_id = $1
		ORDER BY timestamp DESC, transaction_id DESC
	`

	rows, err := r.db.Pool().Query(ctx, query, collectionID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.CollectionID, &t.Symbol, &t.Shares, &t.CashDelta, &t.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, len(transactions), nil
}

// SumCashDeltas returns the sum of all cash deltas for a portfolio. Used by
// consistency checks of the ledger identity.
func (r *TransactionRepository) SumCashDeltas(ctx context.Context, collectionID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Pool().QueryRow(ctx, `
		SELECT COALESCE(SUM(delta), 0)
		FROM transaction
		WHERE collection_id = $1
	`, collectionID).Scan(&sum)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to sum cash deltas: %w", err)
	}

	return sum, nil
}
