package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/storage"
	"github.com/stock-portfolio/internal/types"
)

// Mock repositories for testing

// mockTxRunner runs the function directly; the nil transaction handle is
// fine because the mock repositories ignore it
type mockTxRunner struct {
	beginErr error
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	return fn(nil)
}

type mockCollectionRepo struct {
	collections map[int64]*models.Collection
	nextID      int64
	deleted     []int64
}

func newMockCollectionRepo() *mockCollectionRepo {
	return &mockCollectionRepo{collections: make(map[int64]*models.Collection), nextID: 1}
}

func (m *mockCollectionRepo) addPortfolio(ownerID int64, balance string) int64 {
	b := decimal.RequireFromString(balance)
	id := m.nextID
	m.nextID++
	m.collections[id] = &models.Collection{
		ID:      id,
		Name:    fmt.Sprintf("portfolio-%d", id),
		OwnerID: ownerID,
		Kind:    types.KindPortfolio,
		Balance: &b,
	}
	return id
}

func (m *mockCollectionRepo) addStockList(ownerID int64, visibility types.Visibility) int64 {
	id := m.nextID
	m.nextID++
	m.collections[id] = &models.Collection{
		ID:         id,
		Name:       fmt.Sprintf("list-%d", id),
		OwnerID:    ownerID,
		Kind:       types.KindStockList,
		Visibility: &visibility,
	}
	return id
}

func (m *mockCollectionRepo) CreatePortfolio(ctx context.Context, q storage.Querier, name string, ownerID int64, balance decimal.Decimal) (int64, error) {
	id := m.addPortfolio(ownerID, balance.String())
	m.collections[id].Name = name
	return id, nil
}

func (m *mockCollectionRepo) CreateStockList(ctx context.Context, q storage.Querier, name string, ownerID int64, visibility types.Visibility) (int64, error) {
	id := m.addStockList(ownerID, visibility)
	m.collections[id].Name = name
	return id, nil
}

func (m *mockCollectionRepo) Get(ctx context.Context, q storage.Querier, id int64) (*models.Collection, bool, error) {
	c, ok := m.collections[id]
	return c, ok, nil
}

func (m *mockCollectionRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Collection, bool, error) {
	c, ok := m.collections[id]
	return c, ok, nil
}

func (m *mockCollectionRepo) UpdateBalance(ctx context.Context, q storage.Querier, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	c, ok := m.collections[id]
	if !ok || c.Balance == nil {
		return decimal.Decimal{}, fmt.Errorf("portfolio %d not found", id)
	}
	b := c.Balance.Add(delta)
	c.Balance = &b
	return b, nil
}

func (m *mockCollectionRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.collections[id]; !ok {
		return fmt.Errorf("collection %d not found", id)
	}
	delete(m.collections, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCollectionRepo) list(filter func(*models.Collection) bool, offset, limit int) ([]*models.Collection, int, error) {
	var all []*models.Collection
	for _, c := range m.collections {
		if filter(c) {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockCollectionRepo) ListPortfoliosByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Collection, int, error) {
	return m.list(func(c *models.Collection) bool {
		return c.OwnerID == ownerID && c.Kind == types.KindPortfolio
	}, offset, limit)
}

func (m *mockCollectionRepo) ListStockListsByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Collection, int, error) {
	return m.list(func(c *models.Collection) bool {
		return c.OwnerID == ownerID && c.Kind == types.KindStockList
	}, offset, limit)
}

func (m *mockCollectionRepo) ListPublicStockLists(ctx context.Context, offset, limit int) ([]*models.Collection, int, error) {
	return m.list(func(c *models.Collection) bool {
		return c.Kind == types.KindStockList && c.Visibility != nil && *c.Visibility == types.VisibilityPublic
	}, offset, limit)
}

func (m *mockCollectionRepo) ListSharedWithFriendsOf(ctx context.Context, viewerID int64, offset, limit int) ([]*models.Collection, int, error) {
	return m.list(func(c *models.Collection) bool {
		return c.Kind == types.KindStockList && c.Visibility != nil && *c.Visibility == types.VisibilityShared
	}, offset, limit)
}

type mockHoldingRepo struct {
	// shares[collectionID][symbol]
	shares map[int64]map[string]int64
	prices map[string]string
}

func newMockHoldingRepo() *mockHoldingRepo {
	return &mockHoldingRepo{shares: make(map[int64]map[string]int64), prices: make(map[string]string)}
}

func (m *mockHoldingRepo) SharesForUpdate(ctx context.Context, tx pgx.Tx, collectionID int64, symbol string) (int64, bool, error) {
	s, ok := m.shares[collectionID][symbol]
	return s, ok, nil
}

func (m *mockHoldingRepo) Insert(ctx context.Context, q storage.Querier, collectionID int64, symbol string, shares int64) error {
	if m.shares[collectionID] == nil {
		m.shares[collectionID] = make(map[string]int64)
	}
	m.shares[collectionID][symbol] = shares
	return nil
}

func (m *mockHoldingRepo) UpdateShares(ctx context.Context, q storage.Querier, collectionID int64, symbol string, shares int64) error {
	if _, ok := m.shares[collectionID][symbol]; !ok {
		return fmt.Errorf("holding (%d, %s) not found", collectionID, symbol)
	}
	m.shares[collectionID][symbol] = shares
	return nil
}

func (m *mockHoldingRepo) Delete(ctx context.Context, q storage.Querier, collectionID int64, symbol string) error {
	if _, ok := m.shares[collectionID][symbol]; !ok {
		return fmt.Errorf("holding (%d, %s) not found", collectionID, symbol)
	}
	delete(m.shares[collectionID], symbol)
	return nil
}

func (m *mockHoldingRepo) ListQuotes(ctx context.Context, collectionID int64) ([]*models.HoldingQuote, error) {
	var symbols []string
	for sym := range m.shares[collectionID] {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	var quotes []*models.HoldingQuote
	for _, sym := range symbols {
		quotes = append(quotes, &models.HoldingQuote{
			Symbol: sym,
			Shares: m.shares[collectionID][sym],
			Price:  decimal.RequireFromString(m.prices[sym]),
		})
	}
	return quotes, nil
}

type mockTransactionRepo struct {
	transactions []*models.Transaction
}

func (m *mockTransactionRepo) Append(ctx context.Context, q storage.Querier, collectionID int64, symbol string, shares int64, cashDelta decimal.Decimal) error {
	m.transactions = append(m.transactions, &models.Transaction{
		ID:           int64(len(m.transactions) + 1),
		CollectionID: collectionID,
		Symbol:       symbol,
		Shares:       shares,
		CashDelta:    cashDelta,
	})
	return nil
}

func (m *mockTransactionRepo) ListByCollection(ctx context.Context, collectionID int64) ([]*models.Transaction, int, error) {
	var result []*models.Transaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].CollectionID == collectionID {
			result = append(result, m.transactions[i])
		}
	}
	return result, len(result), nil
}

// mockPriceRepo holds per-symbol daily bars, kept sorted by date
type mockPriceRepo struct {
	// bars[symbol] ordered by date ascending
	bars map[string][]mockBar
}

type mockBar struct {
	date  time.Time
	close float64
}

func newMockPriceRepo() *mockPriceRepo {
	return &mockPriceRepo{bars: make(map[string][]mockBar)}
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func (m *mockPriceRepo) addBar(symbol string, date time.Time, close float64) {
	m.bars[symbol] = append(m.bars[symbol], mockBar{date: date, close: close})
	sort.Slice(m.bars[symbol], func(i, j int) bool {
		return m.bars[symbol][i].date.Before(m.bars[symbol][j].date)
	})
}

func (m *mockPriceRepo) addSeries(symbol string, closes ...float64) {
	for i, c := range closes {
		m.addBar(symbol, day(i+1), c)
	}
}

func (m *mockPriceRepo) LatestClose(ctx context.Context, q storage.Querier, symbol string) (decimal.Decimal, bool, error) {
	bars := m.bars[symbol]
	if len(bars) == 0 {
		return decimal.Decimal{}, false, nil
	}
	return decimal.NewFromFloat(bars[len(bars)-1].close), true, nil
}

func (m *mockPriceRepo) Closes(ctx context.Context, symbol string) ([]float64, error) {
	var closes []float64
	for _, b := range m.bars[symbol] {
		closes = append(closes, b.close)
	}
	return closes, nil
}

func (m *mockPriceRepo) AlignedCloses(ctx context.Context, symbolA, symbolB string) ([][2]float64, error) {
	byDate := make(map[time.Time]float64)
	for _, b := range m.bars[symbolB] {
		byDate[b.date] = b.close
	}
	var pairs [][2]float64
	for _, a := range m.bars[symbolA] {
		if c, ok := byDate[a.date]; ok {
			pairs = append(pairs, [2]float64{a.close, c})
		}
	}
	return pairs, nil
}

func (m *mockPriceRepo) MarketSeries(ctx context.Context, symbol string) ([][2]float64, error) {
	sums := make(map[time.Time]float64)
	for _, bars := range m.bars {
		for _, b := range bars {
			sums[b.date] += b.close
		}
	}
	var series [][2]float64
	for _, b := range m.bars[symbol] {
		series = append(series, [2]float64{b.close, sums[b.date]})
	}
	return series, nil
}

func (m *mockPriceRepo) MaxDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	bars := m.bars[symbol]
	if len(bars) == 0 {
		return time.Time{}, false, nil
	}
	return bars[len(bars)-1].date, true, nil
}

func (m *mockPriceRepo) MaxCommonDate(ctx context.Context, symbolA, symbolB string) (time.Time, bool, error) {
	pairsA := make(map[time.Time]bool)
	for _, b := range m.bars[symbolA] {
		pairsA[b.date] = true
	}
	var max time.Time
	var found bool
	for _, b := range m.bars[symbolB] {
		if pairsA[b.date] && b.date.After(max) {
			max = b.date
			found = true
		}
	}
	return max, found, nil
}

type mockStatCacheRepo struct {
	symbolStats map[string]*models.SymbolStats
	pairStats   map[string]*models.PairStats
	upserts     int
}

func newMockStatCacheRepo() *mockStatCacheRepo {
	return &mockStatCacheRepo{
		symbolStats: make(map[string]*models.SymbolStats),
		pairStats:   make(map[string]*models.PairStats),
	}
}

func (m *mockStatCacheRepo) GetSymbolStats(ctx context.Context, symbol string) (*models.SymbolStats, bool, error) {
	s, ok := m.symbolStats[symbol]
	return s, ok, nil
}

func (m *mockStatCacheRepo) UpsertSymbolStats(ctx context.Context, stats *models.SymbolStats) error {
	m.symbolStats[stats.Symbol] = stats
	m.upserts++
	return nil
}

func (m *mockStatCacheRepo) GetPairStats(ctx context.Context, symbol1, symbol2 string) (*models.PairStats, bool, error) {
	s, ok := m.pairStats[symbol1+"/"+symbol2]
	return s, ok, nil
}

func (m *mockStatCacheRepo) UpsertPairStats(ctx context.Context, stats *models.PairStats) error {
	m.pairStats[stats.Symbol1+"/"+stats.Symbol2] = stats
	m.upserts++
	return nil
}

type mockRelationshipRepo struct {
	edges map[[2]int64]*models.Relationship
	now   time.Time
}

func newMockRelationshipRepo() *mockRelationshipRepo {
	return &mockRelationshipRepo{
		edges: make(map[[2]int64]*models.Relationship),
		now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockRelationshipRepo) setEdge(lo, hi int64, relType types.RelationshipType, at time.Time) {
	m.edges[[2]int64{lo, hi}] = &models.Relationship{UserLo: lo, UserHi: hi, Type: relType, Timestamp: at}
}

func (m *mockRelationshipRepo) Get(ctx context.Context, userLo, userHi int64) (*models.Relationship, bool, error) {
	r, ok := m.edges[[2]int64{userLo, userHi}]
	return r, ok, nil
}

func (m *mockRelationshipRepo) Insert(ctx context.Context, userLo, userHi int64, relType types.RelationshipType) error {
	key := [2]int64{userLo, userHi}
	if _, ok := m.edges[key]; ok {
		return fmt.Errorf("relationship (%d, %d) already exists", userLo, userHi)
	}
	m.setEdge(userLo, userHi, relType, m.now)
	return nil
}

func (m *mockRelationshipRepo) SetType(ctx context.Context, userLo, userHi int64, relType types.RelationshipType) error {
	r, ok := m.edges[[2]int64{userLo, userHi}]
	if !ok {
		return fmt.Errorf("relationship (%d, %d) not found", userLo, userHi)
	}
	r.Type = relType
	r.Timestamp = m.now
	return nil
}

func (m *mockRelationshipRepo) IsFriend(ctx context.Context, userA, userB int64) (bool, error) {
	lo, hi := orderPair(userA, userB)
	r, ok := m.edges[[2]int64{lo, hi}]
	return ok && r.Type == types.RelFriend, nil
}

func (m *mockRelationshipRepo) listIDs(match func(*models.Relationship) (int64, bool), offset, limit int) ([]int64, int, error) {
	var ids []int64
	for _, r := range m.edges {
		if id, ok := match(r); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	total := len(ids)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return ids[offset:end], total, nil
}

func (m *mockRelationshipRepo) ListFriendIDs(ctx context.Context, userID int64, offset, limit int) ([]int64, int, error) {
	return m.listIDs(func(r *models.Relationship) (int64, bool) {
		if r.Type != types.RelFriend {
			return 0, false
		}
		switch userID {
		case r.UserLo:
			return r.UserHi, true
		case r.UserHi:
			return r.UserLo, true
		}
		return 0, false
	}, offset, limit)
}

func (m *mockRelationshipRepo) ListIncomingRequestIDs(ctx context.Context, userID int64, offset, limit int) ([]int64, int, error) {
	return m.listIDs(func(r *models.Relationship) (int64, bool) {
		if r.Type == types.RelU1Request && r.UserHi == userID {
			return r.UserLo, true
		}
		if r.Type == types.RelU2Request && r.UserLo == userID {
			return r.UserHi, true
		}
		return 0, false
	}, offset, limit)
}

func (m *mockRelationshipRepo) Now(ctx context.Context) (time.Time, error) {
	return m.now, nil
}

type mockAccountRepo struct {
	accounts map[int64]*models.Account
	nextID   int64
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[int64]*models.Account), nextID: 1}
}

func (m *mockAccountRepo) addAccount(username, passwordHash string) int64 {
	id := m.nextID
	m.nextID++
	m.accounts[id] = &models.Account{ID: id, Username: username, PasswordHash: passwordHash}
	return id
}

func (m *mockAccountRepo) Create(ctx context.Context, q storage.Querier, username, passwordHash string) (int64, error) {
	return m.addAccount(username, passwordHash), nil
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id int64) (*models.Account, bool, error) {
	a, ok := m.accounts[id]
	return a, ok, nil
}

func (m *mockAccountRepo) GetByUsername(ctx context.Context, username string) (*models.Account, bool, error) {
	for _, a := range m.accounts {
		if a.Username == username {
			return a, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockAccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok, err := m.GetByUsername(ctx, username)
	return ok, err
}

func (m *mockAccountRepo) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.accounts[id]
	return ok, nil
}

type mockReviewRepo struct {
	reviews map[[2]int64]*models.Review
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[[2]int64]*models.Review)}
}

func (m *mockReviewRepo) Exists(ctx context.Context, collectionID, reviewerID int64) (bool, error) {
	_, ok := m.reviews[[2]int64{collectionID, reviewerID}]
	return ok, nil
}

func (m *mockReviewRepo) Create(ctx context.Context, collectionID, reviewerID int64, text string) error {
	m.reviews[[2]int64{collectionID, reviewerID}] = &models.Review{
		CollectionID: collectionID,
		ReviewerID:   reviewerID,
		Text:         text,
	}
	return nil
}

func (m *mockReviewRepo) UpdateText(ctx context.Context, collectionID, reviewerID int64, text string) error {
	r, ok := m.reviews[[2]int64{collectionID, reviewerID}]
	if !ok {
		return fmt.Errorf("review (%d, %d) not found", collectionID, reviewerID)
	}
	r.Text = text
	return nil
}

func (m *mockReviewRepo) Delete(ctx context.Context, collectionID, reviewerID int64) error {
	if _, ok := m.reviews[[2]int64{collectionID, reviewerID}]; !ok {
		return fmt.Errorf("review (%d, %d) not found", collectionID, reviewerID)
	}
	delete(m.reviews, [2]int64{collectionID, reviewerID})
	return nil
}

func (m *mockReviewRepo) ListByCollection(ctx context.Context, collectionID int64) ([]*models.Review, error) {
	var result []*models.Review
	for _, r := range m.reviews {
		if r.CollectionID == collectionID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ReviewerID < result[j].ReviewerID })
	return result, nil
}

func (m *mockReviewRepo) ListByCollectionAndReviewer(ctx context.Context, collectionID, reviewerID int64) ([]*models.Review, error) {
	if r, ok := m.reviews[[2]int64{collectionID, reviewerID}]; ok {
		return []*models.Review{r}, nil
	}
	return nil, nil
}

// mockReadCache is an in-memory stand-in for the Redis response cache
type mockReadCache struct {
	entries map[string][]byte
}

func newMockReadCache() *mockReadCache {
	return &mockReadCache{entries: map[string][]byte{}}
}

func (m *mockReadCache) HoldingsKey(collectionID int64) string {
	return fmt.Sprintf("holdings:%d", collectionID)
}

func (m *mockReadCache) PublicListingsKey(offset, limit int) string {
	return fmt.Sprintf("listings:public:%d:%d", offset, limit)
}

func (m *mockReadCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *mockReadCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *mockReadCache) InvalidateCollection(ctx context.Context, collectionID int64) error {
	delete(m.entries, m.HoldingsKey(collectionID))
	delete(m.entries, fmt.Sprintf("txs:%d", collectionID))
	return nil
}

func (m *mockReadCache) InvalidatePublicListings(ctx context.Context) error {
	for key := range m.entries {
		if strings.HasPrefix(key, "listings:public:") {
			delete(m.entries, key)
		}
	}
	return nil
}
