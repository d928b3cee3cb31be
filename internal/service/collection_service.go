package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/storage"
	"github.com/stock-portfolio/internal/types"
)

const defaultPageSize = 10

// CollectionStore is the collection surface used for creation, lookup and
// the visibility-scoped listings
type CollectionStore interface {
	CreatePortfolio(ctx context.Context, q storage.Querier, name string, ownerID int64, balance decimal.Decimal) (int64, error)
	CreateStockList(ctx context.Context, q storage.Querier, name string, ownerID int64, visibility types.Visibility) (int64, error)
	Get(ctx context.Context, q storage.Querier, id int64) (*models.Collection, bool, error)
	Delete(ctx context.Context, id int64) error
	ListPortfoliosByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Collection, int, error)
	ListStockListsByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Collection, int, error)
	ListPublicStockLists(ctx context.Context, offset, limit int) ([]*models.Collection, int, error)
	ListSharedWithFriendsOf(ctx context.Context, viewerID int64, offset, limit int) ([]*models.Collection, int, error)
}

// HoldingQuoteStore reads a collection's holdings with current prices
type HoldingQuoteStore interface {
	ListQuotes(ctx context.Context, collectionID int64) ([]*models.HoldingQuote, error)
}

// FriendChecker answers whether two users are friends
type FriendChecker interface {
	IsFriend(ctx context.Context, userA, userB int64) (bool, error)
}

// ReadCache caches assembled read responses: holdings keyed per
// collection, and pages of the public stock list directory
type ReadCache interface {
	HoldingsKey(collectionID int64) string
	PublicListingsKey(offset, limit int) string
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	InvalidateCollection(ctx context.Context, collectionID int64) error
	InvalidatePublicListings(ctx context.Context) error
}

// listingPage is the cached form of one public directory page. Total rides
// along so a cache hit can answer without a second count query.
type listingPage struct {
	Items []*models.Collection `json:"items"`
	Total int                  `json:"total"`
}

// CollectionService manages portfolios and stock lists and enforces who may
// see a collection's contents: the owner always, anyone for a public stock
// list, and friends of the owner for a shared one.
type CollectionService struct {
	db          TxRunner
	collections CollectionStore
	holdings    HoldingQuoteStore
	friends     FriendChecker
	cache       ReadCache
}

// NewCollectionService creates a new collection service. cache may be nil
// when no response cache is configured.
func NewCollectionService(
	db TxRunner,
	collections CollectionStore,
	holdings HoldingQuoteStore,
	friends FriendChecker,
	cache ReadCache,
) *CollectionService {
	return &CollectionService{
		db:          db,
		collections: collections,
		holdings:    holdings,
		friends:     friends,
		cache:       cache,
	}
}

// CreatePortfolio creates a cash-carrying portfolio for the owner. A nil
// initial balance means zero.
func (s *CollectionService) CreatePortfolio(ctx context.Context, name string, ownerID int64, initialBalance *decimal.Decimal) (int64, error) {
	if name == "" {
		return 0, types.NewInvalidArgument("name is required")
	}

	balance := decimal.Zero
	if initialBalance != nil {
		balance = *initialBalance
	}

	var id int64
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.collections.CreatePortfolio(ctx, tx, name, ownerID, balance)
		return err
	})
	if err != nil {
		return 0, types.NewStorageFailure("create portfolio", err)
	}

	return id, nil
}

// CreateStockList creates a share-tracking stock list with the given
// visibility
func (s *CollectionService) CreateStockList(ctx context.Context, name string, ownerID int64, visibility types.Visibility) (int64, error) {
	if name == "" {
		return 0, types.NewInvalidArgument("name is required")
	}
	if !visibility.Valid() {
		return 0, types.NewInvalidArgument("invalid visibility")
	}

	var id int64
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.collections.CreateStockList(ctx, tx, name, ownerID, visibility)
		return err
	})
	if err != nil {
		return 0, types.NewStorageFailure("create stock list", err)
	}

	if s.cache != nil && visibility == types.VisibilityPublic {
		_ = s.cache.InvalidatePublicListings(ctx)
	}

	return id, nil
}

// Get returns a collection the viewer is allowed to see
func (s *CollectionService) Get(ctx context.Context, id, viewerID int64) (*models.Collection, error) {
	return s.visibleCollection(ctx, id, viewerID)
}

// Delete removes a collection and everything hanging off it, owner-only
func (s *CollectionService) Delete(ctx context.Context, id, actorID int64) error {
	collection, found, err := s.collections.Get(ctx, nil, id)
	if err != nil {
		return types.NewStorageFailure("delete collection", err)
	}
	if !found {
		return types.NewNotFound("collection not found")
	}
	if collection.OwnerID != actorID {
		return types.NewForbidden("not authorized")
	}

	if err := s.collections.Delete(ctx, id); err != nil {
		return types.NewStorageFailure("delete collection", err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateCollection(ctx, id)
		if collection.Kind == types.KindStockList && collection.Visibility != nil && *collection.Visibility == types.VisibilityPublic {
			_ = s.cache.InvalidatePublicListings(ctx)
		}
	}

	return nil
}

// ListPortfolios returns the owner's portfolios, newest first
func (s *CollectionService) ListPortfolios(ctx context.Context, ownerID int64, page, limit int) ([]*models.Collection, int, error) {
	offset, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	collections, total, err := s.collections.ListPortfoliosByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, 0, types.NewStorageFailure("list portfolios", err)
	}
	return collections, total, nil
}

// ListStockLists returns the owner's stock lists, newest first
func (s *CollectionService) ListStockLists(ctx context.Context, ownerID int64, page, limit int) ([]*models.Collection, int, error) {
	offset, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	collections, total, err := s.collections.ListStockListsByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, 0, types.NewStorageFailure("list stock lists", err)
	}
	return collections, total, nil
}

// ListPublicStockLists returns every public stock list, newest first
func (s *CollectionService) ListPublicStockLists(ctx context.Context, page, limit int) ([]*models.Collection, int, error) {
	offset, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, 0, err
	}

	var key string
	if s.cache != nil {
		key = s.cache.PublicListingsKey(offset, limit)
		var cached listingPage
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Items, cached.Total, nil
		}
	}

	collections, total, err := s.collections.ListPublicStockLists(ctx, offset, limit)
	if err != nil {
		return nil, 0, types.NewStorageFailure("list public stock lists", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, listingPage{Items: collections, Total: total})
	}
	return collections, total, nil
}

// ListSharedStockLists returns shared stock lists owned by the viewer's
// friends, newest first
func (s *CollectionService) ListSharedStockLists(ctx context.Context, viewerID int64, page, limit int) ([]*models.Collection, int, error) {
	offset, limit, err := normalizePage(page, limit)
	if err != nil {
		return nil, 0, err
	}
	collections, total, err := s.collections.ListSharedWithFriendsOf(ctx, viewerID, offset, limit)
	if err != nil {
		return nil, 0, types.NewStorageFailure("list shared stock lists", err)
	}
	return collections, total, nil
}

// GetHoldings returns a collection's holdings with each symbol's latest
// close, subject to the visibility rule. Served from the response cache
// when a fresh entry exists.
func (s *CollectionService) GetHoldings(ctx context.Context, collectionID, viewerID int64) ([]*models.HoldingQuote, error) {
	if _, err := s.visibleCollection(ctx, collectionID, viewerID); err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = s.cache.HoldingsKey(collectionID)
		var cached []*models.HoldingQuote
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	quotes, err := s.holdings.ListQuotes(ctx, collectionID)
	if err != nil {
		return nil, types.NewStorageFailure("get holdings", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, quotes)
	}

	return quotes, nil
}

// visibleCollection resolves a collection and applies the visibility rule
func (s *CollectionService) visibleCollection(ctx context.Context, id, viewerID int64) (*models.Collection, error) {
	collection, found, err := s.collections.Get(ctx, nil, id)
	if err != nil {
		return nil, types.NewStorageFailure("get collection", err)
	}
	if !found {
		return nil, types.NewNotFound("collection not found")
	}

	if collection.OwnerID == viewerID {
		return collection, nil
	}
	if collection.Kind == types.KindStockList && collection.Visibility != nil {
		switch *collection.Visibility {
		case types.VisibilityPublic:
			return collection, nil
		case types.VisibilityShared:
			friend, err := s.friends.IsFriend(ctx, collection.OwnerID, viewerID)
			if err != nil {
				return nil, types.NewStorageFailure("get collection", err)
			}
			if friend {
				return collection, nil
			}
		}
	}

	return nil, types.NewForbidden("not authorized")
}

// normalizePage converts a (page, limit) pair into an offset and page size.
// Zero means "use the default"; negative values are caller mistakes and are
// rejected rather than clamped.
func normalizePage(page, limit int) (offset, size int, err error) {
	if page < 0 || limit < 0 {
		return 0, 0, types.NewInvalidArgument("page and limit must not be negative")
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	return page * limit, limit, nil
}

var (
	_ CollectionStore   = (*storage.CollectionRepository)(nil)
	_ HoldingQuoteStore = (*storage.HoldingRepository)(nil)
	_ FriendChecker     = (*storage.RelationshipRepository)(nil)
	_ ReadCache         = (*storage.ResponseCache)(nil)
)
