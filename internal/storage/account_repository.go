package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stock-portfolio/internal/models"
)

// AccountRepository handles account persistence
type AccountRepository struct {
	db *PostgresDB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *PostgresDB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account and returns its id. It runs on the given
// Querier so signup can create the account and its default portfolio in one
// transaction.
func (r *AccountRepository) Create(ctx context.Context, q Querier, username, passwordHash string) (int64, error) {
	q = r.db.querier(q)
	query := `
		INSERT INTO account (username, password_hash)
		VALUES ($1, $2)
		RETURNING account_id
	`

	var id int64
	if err := q.QueryRow(ctx, query, username, passwordHash).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	return id, nil
}

// GetByID retrieves an account by id
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, bool, error) {
	query := `
		SELECT account_id, username, password_hash, created_at
		FROM account
		WHERE account_id = $1
	`

	var account models.Account
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, true, nil
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, bool, error) {
	query := `
		SELECT account_id, username, password_hash, created_at
		FROM account
		WHERE username = $1
	`

	var account models.Account
	err := r.db.Pool().QueryRow(ctx, query, username).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get account by username: %w", err)
	}

	return &account, true, nil
}

// ExistsByUsername checks if a username is already taken
func (r *AccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM account WHERE username = $1)`

	if err := r.db.Pool().QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// Exists checks if an account exists by id
func (r *AccountRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM account WHERE account_id = $1)`

	if err := r.db.Pool().QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return exists, nil
}
