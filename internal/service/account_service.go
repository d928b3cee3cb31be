package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/storage"
	"github.com/stock-portfolio/internal/types"
)

// AccountStore persists accounts
type AccountStore interface {
	Create(ctx context.Context, q storage.Querier, username, passwordHash string) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Account, bool, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// PortfolioCreator creates the default portfolio during signup
type PortfolioCreator interface {
	CreatePortfolio(ctx context.Context, q storage.Querier, name string, ownerID int64, balance decimal.Decimal) (int64, error)
}

// AccountService handles signup and credential checks
type AccountService struct {
	db          TxRunner
	accounts    AccountStore
	collections PortfolioCreator
}

// NewAccountService creates a new account service
func NewAccountService(db TxRunner, accounts AccountStore, collections PortfolioCreator) *AccountService {
	return &AccountService{
		db:          db,
		accounts:    accounts,
		collections: collections,
	}
}

// Signup registers a new account and its default portfolio (zero balance)
// in one transaction, so no account ever exists without a portfolio
func (s *AccountService) Signup(ctx context.Context, username, password string) (int64, error) {
	if username == "" || password == "" {
		return 0, types.NewInvalidArgument("username and password are required")
	}

	taken, err := s.accounts.ExistsByUsername(ctx, username)
	if err != nil {
		return 0, types.NewStorageFailure("signup", err)
	}
	if taken {
		return 0, types.NewConflict("username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, types.NewStorageFailure("signup", err)
	}

	var id int64
	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.accounts.Create(ctx, tx, username, string(hash))
		if err != nil {
			return err
		}
		_, err = s.collections.CreatePortfolio(ctx, tx, username+"'s Portfolio", id, decimal.Zero)
		return err
	})
	if err != nil {
		return 0, types.NewStorageFailure("signup", err)
	}

	return id, nil
}

// Authenticate checks a username/password pair and returns the account.
// A missing user and a wrong password produce the same error, so the
// response does not reveal which usernames exist.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	if username == "" || password == "" {
		return nil, types.NewInvalidArgument("username and password are required")
	}

	account, found, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, types.NewStorageFailure("authenticate", err)
	}
	if !found {
		return nil, types.NewForbidden("incorrect username or password")
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, types.NewForbidden("incorrect username or password")
	}

	return account, nil
}

// GetAccount returns an account by id
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, found, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, types.NewStorageFailure("get account", err)
	}
	if !found {
		return nil, types.NewNotFound("user not found")
	}
	return account, nil
}

var (
	_ AccountStore     = (*storage.AccountRepository)(nil)
	_ PortfolioCreator = (*storage.CollectionRepository)(nil)
)
