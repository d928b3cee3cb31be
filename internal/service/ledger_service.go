// Package service implements the core operations over portfolios,
// stock lists, holdings, transactions and derived statistics.
package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/storage"
	"github.com/stock-portfolio/internal/types"
)

// Store interfaces for dependency injection

// TxRunner runs a function inside one all-or-nothing store transaction
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// CollectionLedgerStore is the collection surface the ledger mutates
type CollectionLedgerStore interface {
	Get(ctx context.Context, q storage.Querier, id int64) (*models.Collection, bool, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Collection, bool, error)
	UpdateBalance(ctx context.Context, q storage.Querier, id int64, delta decimal.Decimal) (decimal.Decimal, error)
}

// HoldingStore is the holding surface the ledger mutates
type HoldingStore interface {
	SharesForUpdate(ctx context.Context, tx pgx.Tx, collectionID int64, symbol string) (int64, bool, error)
	Insert(ctx context.Context, q storage.Querier, collectionID int64, symbol string, shares int64) error
	UpdateShares(ctx context.Context, q storage.Querier, collectionID int64, symbol string, shares int64) error
	Delete(ctx context.Context, q storage.Querier, collectionID int64, symbol string) error
}

// TransactionStore appends and reads the transaction log
type TransactionStore interface {
	Append(ctx context.Context, q storage.Querier, collectionID int64, symbol string, shares int64, cashDelta decimal.Decimal) error
	ListByCollection(ctx context.Context, collectionID int64) ([]*models.Transaction, int, error)
}

// QuoteStore resolves the current price of a symbol
type QuoteStore interface {
	LatestClose(ctx context.Context, q storage.Querier, symbol string) (decimal.Decimal, bool, error)
}

// CollectionInvalidator drops cached reads for a collection after a write
type CollectionInvalidator interface {
	InvalidateCollection(ctx context.Context, collectionID int64) error
}

// LedgerService mutates portfolio balances and collection holdings. Every
// mutating operation runs as one store transaction with the portfolio and
// holding rows locked, so concurrent trades cannot race past the funds and
// quantity checks.
type LedgerService struct {
	db           TxRunner
	collections  CollectionLedgerStore
	holdings     HoldingStore
	transactions TransactionStore
	quotes       QuoteStore
	cache        CollectionInvalidator
}

// NewLedgerService creates a new ledger service. cache may be nil when no
// response cache is configured.
func NewLedgerService(
	db TxRunner,
	collections CollectionLedgerStore,
	holdings HoldingStore,
	transactions TransactionStore,
	quotes QuoteStore,
	cache CollectionInvalidator,
) *LedgerService {
	return &LedgerService{
		db:           db,
		collections:  collections,
		holdings:     holdings,
		transactions: transactions,
		quotes:       quotes,
		cache:        cache,
	}
}

// ApplyTrade buys (shares > 0) or sells (shares < 0) a symbol in a
// collection. Portfolios additionally settle cash at the latest close and
// append a transaction-log row; stock lists only track share counts.
func (s *LedgerService) ApplyTrade(ctx context.Context, collectionID int64, symbol string, shares int64, actorID int64) (types.TradeOutcome, error) {
	if symbol == "" || shares == 0 {
		return "", types.NewInvalidArgument("invalid symbol or share quantity")
	}

	var outcome types.TradeOutcome
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		collection, found, err := s.collections.GetForUpdate(ctx, tx, collectionID)
		if err != nil {
			return types.NewStorageFailure("apply trade", err)
		}
		if !found {
			return types.NewNotFound("collection not found")
		}
		if collection.OwnerID != actorID {
			return types.NewForbidden("not authorized")
		}

		price, found, err := s.quotes.LatestClose(ctx, tx, symbol)
		if err != nil {
			return types.NewStorageFailure("apply trade", err)
		}
		if !found {
			return types.NewNotFound("stock not found")
		}

		cashDelta := price.Mul(decimal.NewFromInt(shares)).Neg()

		// Stock lists never gate on funds; only portfolios hold cash.
		if collection.Kind == types.KindPortfolio && shares > 0 {
			cost := cashDelta.Neg()
			if collection.Balance.LessThan(cost) {
				return &types.ServiceError{
					Code:    types.CodeInsufficientFunds,
					Message: "insufficient funds",
					Details: map[string]interface{}{
						"required":  cost.String(),
						"available": collection.Balance.String(),
					},
				}
			}
		}

		current, exists, err := s.holdings.SharesForUpdate(ctx, tx, collectionID, symbol)
		if err != nil {
			return types.NewStorageFailure("apply trade", err)
		}

		newShares := current + shares
		switch {
		case newShares < 0:
			return &types.ServiceError{
				Code:    types.CodeInsufficientShares,
				Message: "selling more shares than held",
				Details: map[string]interface{}{
					"held":      current,
					"requested": -shares,
				},
			}
		case newShares == 0:
			if err := s.holdings.Delete(ctx, tx, collectionID, symbol); err != nil {
				return types.NewStorageFailure("apply trade", err)
			}
			outcome = types.OutcomeRemoved
		case !exists:
			if err := s.holdings.Insert(ctx, tx, collectionID, symbol, newShares); err != nil {
				return types.NewStorageFailure("apply trade", err)
			}
			outcome = types.OutcomeAdded
		default:
			if err := s.holdings.UpdateShares(ctx, tx, collectionID, symbol, newShares); err != nil {
				return types.NewStorageFailure("apply trade", err)
			}
			outcome = types.OutcomeUpdated
		}

		if collection.Kind == types.KindPortfolio {
			if _, err := s.collections.UpdateBalance(ctx, tx, collectionID, cashDelta); err != nil {
				return types.NewStorageFailure("apply trade", err)
			}
			if err := s.transactions.Append(ctx, tx, collectionID, symbol, shares, cashDelta); err != nil {
				return types.NewStorageFailure("apply trade", err)
			}
		}

		return nil
	})
	if err != nil {
		if _, ok := err.(*types.ServiceError); ok {
			return "", err
		}
		return "", types.NewStorageFailure("apply trade", err)
	}

	s.invalidate(ctx, collectionID)

	return outcome, nil
}

// AdjustBalance deposits (positive delta) or withdraws (negative delta)
// portfolio cash and returns the new balance. The operation itself does
// not guard against a negative result; withdrawal sufficiency is the
// caller's concern.
func (s *LedgerService) AdjustBalance(ctx context.Context, portfolioID int64, delta decimal.Decimal, actorID int64) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Decimal{}, types.NewInvalidArgument("invalid amount")
	}

	var balance decimal.Decimal
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		collection, err := s.portfolioForUpdate(ctx, tx, portfolioID, actorID)
		if err != nil {
			return err
		}

		balance, err = s.collections.UpdateBalance(ctx, tx, collection.ID, delta)
		if err != nil {
			return types.NewStorageFailure("adjust balance", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*types.ServiceError); ok {
			return decimal.Decimal{}, err
		}
		return decimal.Decimal{}, types.NewStorageFailure("adjust balance", err)
	}

	s.invalidate(ctx, portfolioID)

	return balance, nil
}

// GetBalance returns a portfolio's current cash balance, owner-only
func (s *LedgerService) GetBalance(ctx context.Context, portfolioID, actorID int64) (decimal.Decimal, error) {
	collection, err := s.ownedPortfolio(ctx, portfolioID, actorID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return *collection.Balance, nil
}

// ListTransactions returns a portfolio's transaction log newest-first,
// owner-only
func (s *LedgerService) ListTransactions(ctx context.Context, portfolioID, actorID int64) ([]*models.Transaction, int, error) {
	if _, err := s.ownedPortfolio(ctx, portfolioID, actorID); err != nil {
		return nil, 0, err
	}

	transactions, total, err := s.transactions.ListByCollection(ctx, portfolioID)
	if err != nil {
		return nil, 0, types.NewStorageFailure("list transactions", err)
	}

	return transactions, total, nil
}

// portfolioForUpdate resolves and locks a portfolio inside a transaction,
// applying the not-found and ownership gates
func (s *LedgerService) portfolioForUpdate(ctx context.Context, tx pgx.Tx, portfolioID, actorID int64) (*models.Collection, error) {
	collection, found, err := s.collections.GetForUpdate(ctx, tx, portfolioID)
	if err != nil {
		return nil, types.NewStorageFailure("get portfolio", err)
	}
	if !found || collection.Kind != types.KindPortfolio {
		return nil, types.NewNotFound("portfolio not found")
	}
	if collection.OwnerID != actorID {
		return nil, types.NewForbidden("not authorized")
	}
	return collection, nil
}

// ownedPortfolio resolves a portfolio outside any transaction, applying
// the not-found and ownership gates
func (s *LedgerService) ownedPortfolio(ctx context.Context, portfolioID, actorID int64) (*models.Collection, error) {
	collection, found, err := s.collections.Get(ctx, nil, portfolioID)
	if err != nil {
		return nil, types.NewStorageFailure("get portfolio", err)
	}
	if !found || collection.Kind != types.KindPortfolio {
		return nil, types.NewNotFound("portfolio not found")
	}
	if collection.OwnerID != actorID {
		return nil, types.NewForbidden("not authorized")
	}
	return collection, nil
}

// invalidate drops cached reads for the collection. Best effort: the
// response cache TTL bounds staleness if the invalidation fails.
func (s *LedgerService) invalidate(ctx context.Context, collectionID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateCollection(ctx, collectionID)
}

// ensure storage types satisfy the service interfaces
var (
	_ TxRunner              = (*storage.PostgresDB)(nil)
	_ CollectionLedgerStore = (*storage.CollectionRepository)(nil)
	_ HoldingStore          = (*storage.HoldingRepository)(nil)
	_ TransactionStore      = (*storage.TransactionRepository)(nil)
	_ QuoteStore            = (*storage.PriceRepository)(nil)
	_ CollectionInvalidator = (*storage.ResponseCache)(nil)
)
