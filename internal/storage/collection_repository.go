package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/types"
)

// CollectionRepository handles the umbrella collection rows and their
// kind-specific extensions (portfolio balance, stock-list visibility).
type CollectionRepository struct {
	db *PostgresDB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *PostgresDB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// CreatePortfolio inserts the collection row and its portfolio extension.
// Runs on a transaction so the two inserts are atomic.
func (r *CollectionRepository) CreatePortfolio(ctx context.Context, q Querier, name string, ownerID int64, balance decimal.Decimal) (int64, error) {
	q = r.db.querier(q)
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO stock_collection (name, owner)
		VALUES ($1, $2)
		RETURNING collection_id
	`, name, ownerID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create collection: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO portfolio (collection_id, balance)
		VALUES ($1, $2)
	`, id, balance)
	if err != nil {
		return 0, fmt.Errorf("failed to create portfolio extension: %w", err)
	}

	return id, nil
}

// CreateStockList inserts the collection row and its stock-list extension
func (r *CollectionRepository) CreateStockList(ctx context.Context, q Querier, name string, ownerID int64, visibility types.Visibility) (int64, error) {
	q = r.db.querier(q)
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO stock_collection (name, owner)
		VALUES ($1, $2)
		RETURNING collection_id
	`, name, ownerID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create collection: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO stock_list (collection_id, visibility)
		VALUES ($1, $2)
	`, id, visibility)
	if err != nil {
		return 0, fmt.Errorf("failed to create stock list extension: %w", err)
	}

	return id, nil
}

const collectionQuery = `
	SELECT c.collection_id, c.name, c.owner, c.created_at,
	       p.balance, sl.visibility
	FROM stock_collection c
	LEFT JOIN portfolio p ON p.collection_id = c.collection_id
	LEFT JOIN stock_list sl ON sl.collection_id = c.collection_id
	WHERE c.collection_id = $1
`

// Get retrieves a collection with its kind-specific extension
func (r *CollectionRepository) Get(ctx context.Context, q Querier, id int64) (*models.Collection, bool, error) {
	return r.scanCollection(r.db.querier(q).QueryRow(ctx, collectionQuery, id))
}

// GetForUpdate retrieves a collection and locks its portfolio row (if any)
// for the remainder of the transaction, so concurrent trades on the same
// portfolio serialize on the balance row.
func (r *CollectionRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Collection, bool, error) {
	query := `
		SELECT c.collection_id, c.name, c.owner, c.created_at,
		       p.balance, sl.visibility
		FROM stock_collection c
		LEFT JOIN portfolio p ON p.collection_id = c.collection_id
		LEFT JOIN stock_list sl ON sl.collection_id = c.collection_id
		WHERE c.collection_id = $1
		FOR UPDATE OF c
	`
	collection, found, err := r.scanCollection(tx.QueryRow(ctx, query, id))
	if err != nil || !found {
		return collection, found, err
	}

	// Row locks do not propagate through the LEFT JOIN; lock the balance
	// row itself when the collection is a portfolio.
	if collection.Kind == types.KindPortfolio {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx, `
			SELECT balance
			FROM portfolio
			WHERE collection_id = $1
			FOR UPDATE
		`, id).Scan(&balance)
		if err != nil {
			return nil, false, fmt.Errorf("failed to lock portfolio row: %w", err)
		}
		collection.Balance = &balance
	}

	return collection, true, nil
}

func (r *CollectionRepository) scanCollection(row pgx.Row) (*models.Collection, bool, error) {
	var c models.Collection
	var balance *decimal.Decimal
	var visibility *types.Visibility

	err := row.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &balance, &visibility)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get collection: %w", err)
	}

	switch {
	case balance != nil:
		c.Kind = types.KindPortfolio
		c.Balance = balance
	case visibility != nil:
		c.Kind = types.KindStockList
		c.Visibility = visibility
	default:
		return nil, false, fmt.Errorf("collection %d has no kind extension row", c.ID)
	}

	return &c, true, nil
}

// UpdateBalance applies a signed delta to a portfolio balance and returns
// the new balance
func (r *CollectionRepository) UpdateBalance(ctx context.Context, q Querier, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	q = r.db.querier(q)
	var balance decimal.Decimal
	err := q.QueryRow(ctx, `
		UPDATE portfolio
		SET balance = balance + $2
		WHERE collection_id = $1
		RETURNING balance
	`, id, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, fmt.Errorf("portfolio %d not found", id)
		}
		return decimal.Decimal{}, fmt.Errorf("failed to update balance: %w", err)
	}

	return balance, nil
}

// Delete removes a collection; holdings, transactions, the kind extension
// and reviews cascade through foreign keys.
func (r *CollectionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM stock_collection WHERE collection_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("collection %d not found", id)
	}

	return nil
}

// ListPortfoliosByOwner returns the owner's portfolios newest-first with
// the total count independent of pagination
func (r *CollectionRepository) ListPortfoliosByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Collection, int, error) {
	query := `
		SELECT c.collection_id, c.name, c.owner, c.created_at, p.balance
		FROM stock_collection c
		JOIN portfolio p ON p.collection_id = c.collection_id
		WHERE c.owner = $1
		ORDER BY c.collection_id DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.db.Pool().Query(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		var c models.Collection
		var balance decimal.Decimal
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &balance); err != nil {
			return nil, 0, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		c.Kind = types.KindPortfolio
		c.Balance = &balance
		collections = append(collections, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating portfolios: %w", err)
	}

	var total int
	err = r.db.Pool().QueryRow(ctx, `
		SELECT COUNT(*)
		FROM stock_collection c
		JOIN portfolio p ON p.collection_id = c.collection_id
		WHERE c.owner = $1
	`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count portfolios: %w", err)
	}

	return collections, total, nil
}

// ListStockListsByOwner returns the owner's stock lists newest-first with
// the total count
func (r *CollectionRepository) ListStockListsByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Collection, int, error) {
	query := `
		SELECT c.collection_id, c.name, c.owner, c.created_at, sl.visibility
		FROM stock_collection c
		JOIN stock_list sl ON sl.collection_id = c.collection_id
		WHERE c.owner = $1
		ORDER BY c.collection_id DESC
		OFFSET $2 LIMIT $3
	`

	lists, err := r.queryStockLists(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.Pool().QueryRow(ctx, `
		SELECT COUNT(*)
		FROM stock_collection c
		JOIN stock_list sl ON sl.collection_id = c.collection_id
		WHERE c.owner = $1
	`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count stock lists: %w", err)
	}

	return lists, total, nil
}

// ListPublicStockLists returns public stock lists newest-first with the
// total count
func (r *CollectionRepository) ListPublicStockLists(ctx context.Context, offset, limit int) ([]*models.Collection, int, error) {
	query := `
		SELECT c.collection_id, c.name, c.owner, c.created_at, sl.visibility
		FROM stock_collection c
		JOIN stock_list sl ON sl.collection_id = c.collection_id
		WHERE sl.visibility = 'public'
		ORDER BY c.collection_id DESC
		OFFSET $1 LIMIT $2
	`

	lists, err := r.queryStockLists(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.Pool().QueryRow(ctx, `
		SELECT COUNT(*)
		FROM stock_list
		WHERE visibility = 'public'
	`).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count public stock lists: %w", err)
	}

	return lists, total, nil
}

// ListSharedWithFriendsOf returns shared stock lists owned by active
// friends of the viewer, newest-first with the total count
func (r *CollectionRepository) ListSharedWithFriendsOf(ctx context.Context, viewerID int64, offset, limit int) ([]*models.Collection, int, error) {
	query := `
		SELECT c.collection_id, c.name, c.owner, c.created_at, sl.visibility
		FROM stock_collection c
		JOIN stock_list sl ON sl.collection_id = c.collection_id
		WHERE sl.visibility = 'shared' AND c.owner IN (
			SELECT user2 FROM relationship WHERE user1 = $1 AND type = 'friend'
			UNION
			SELECT user1 FROM relationship WHERE user2 = $1 AND type = 'friend'
		)
		ORDER BY c.collection_id DESC
		OFFSET $2 LIMIT $3
	`

	lists, err := r.queryStockLists(ctx, query, viewerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.Pool().QueryRow(ctx, `
		SELECT COUNT(*)
		FROM stock_collection c
		JOIN stock_list sl ON sl.collection_id = c.collection_id
		WHERE sl.visibility = 'shared' AND c.owner IN (
			SELECT user2 FROM relationship WHERE user1 = $1 AND type = 'friend'
			UNION
			SELECT user1 FROM relationship WHERE user2 = $1 AND type = 'friend'
		)
	`, viewerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count shared stock lists: %w", err)
	}

	return lists, total, nil
}

func (r *CollectionRepository) queryStockLists(ctx context.Context, query string, args ...any) ([]*models.Collection, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock lists: %w", err)
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		var c models.Collection
		var visibility types.Visibility
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &visibility); err != nil {
			return nil, fmt.Errorf("failed to scan stock list: %w", err)
		}
		c.Kind = types.KindStockList
		c.Visibility = &visibility
		collections = append(collections, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock lists: %w", err)
	}

	return collections, nil
}
