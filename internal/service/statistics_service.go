package service

import (
	"context"
	"time"

	"github.com/stock-portfolio/internal/models"
	"github.com/stock-portfolio/internal/storage"
	"github.com/stock-portfolio/internal/types"
)

// PriceHistoryStore is the price-history surface the statistics service
// reads series and freshness tokens from
type PriceHistoryStore interface {
	Closes(ctx context.Context, symbol string) ([]float64, error)
	AlignedCloses(ctx context.Context, symbolA, symbolB string) ([][2]float64, error)
	MarketSeries(ctx context.Context, symbol string) ([][2]float64, error)
	MaxDate(ctx context.Context, symbol string) (time.Time, bool, error)
	MaxCommonDate(ctx context.Context, symbolA, symbolB string) (time.Time, bool, error)
}

// StatCacheStore persists computed statistics keyed by their freshness date
type StatCacheStore interface {
	GetSymbolStats(ctx context.Context, symbol string) (*models.SymbolStats, bool, error)
	UpsertSymbolStats(ctx context.Context, stats *models.SymbolStats) error
	GetPairStats(ctx context.Context, symbol1, symbol2 string) (*models.PairStats, bool, error)
	UpsertPairStats(ctx context.Context, stats *models.PairStats) error
}

// StatisticsService serves per-symbol and per-pair statistics through a
// read-through cache. A cached row is fresh while its last_updated date
// equals the latest trading date of the underlying series; new price bars
// move that date and silently invalidate the row.
type StatisticsService struct {
	prices PriceHistoryStore
	cache  StatCacheStore
	engine *StatisticsEngine
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(prices PriceHistoryStore, cache StatCacheStore, engine *StatisticsEngine) *StatisticsService {
	return &StatisticsService{
		prices: prices,
		cache:  cache,
		engine: engine,
	}
}

// SymbolStats returns beta, variance and coefficient of variation for a
// symbol, recomputing only when new price history has arrived since the
// cached row was written
func (s *StatisticsService) SymbolStats(ctx context.Context, symbol string) (*models.SymbolStats, error) {
	if symbol == "" {
		return nil, types.NewInvalidArgument("symbol is required")
	}

	token, found, err := s.prices.MaxDate(ctx, symbol)
	if err != nil {
		return nil, types.NewStorageFailure("get symbol stats", err)
	}
	if !found {
		return nil, types.NewNotFound("stock not found")
	}

	cached, ok, err := s.cache.GetSymbolStats(ctx, symbol)
	if err != nil {
		return nil, types.NewStorageFailure("get symbol stats", err)
	}
	if ok && sameDate(cached.LastUpdated, token) {
		return cached, nil
	}

	closes, err := s.prices.Closes(ctx, symbol)
	if err != nil {
		return nil, types.NewStorageFailure("get symbol stats", err)
	}
	market, err := s.prices.MarketSeries(ctx, symbol)
	if err != nil {
		return nil, types.NewStorageFailure("get symbol stats", err)
	}

	beta, err := s.engine.Beta(market)
	if err != nil {
		return nil, err
	}
	variance, err := s.engine.Variance(closes)
	if err != nil {
		return nil, err
	}
	coef, err := s.engine.CoefficientOfVariation(closes)
	if err != nil {
		return nil, err
	}

	stats := &models.SymbolStats{
		Symbol:                 symbol,
		LastUpdated:            token,
		Beta:                   beta,
		Variance:               variance,
		CoefficientOfVariation: coef,
	}
	if err := s.cache.UpsertSymbolStats(ctx, stats); err != nil {
		return nil, types.NewStorageFailure("cache symbol stats", err)
	}

	return stats, nil
}

// PairStats returns covariance and correlation for an unordered pair of
// symbols. The cache row is keyed on the latest trading date the two series
// share, so a bar for only one symbol leaves the pair row fresh.
func (s *StatisticsService) PairStats(ctx context.Context, symbolA, symbolB string) (*models.PairStats, error) {
	if symbolA == "" || symbolB == "" {
		return nil, types.NewInvalidArgument("two symbols are required")
	}
	if symbolA == symbolB {
		return nil, types.NewInvalidArgument("symbols must be distinct")
	}

	lo, hi := symbolA, symbolB
	if lo > hi {
		lo, hi = hi, lo
	}

	for _, sym := range []string{lo, hi} {
		if _, found, err := s.prices.MaxDate(ctx, sym); err != nil {
			return nil, types.NewStorageFailure("get pair stats", err)
		} else if !found {
			return nil, types.NewNotFound("stock not found")
		}
	}

	token, found, err := s.prices.MaxCommonDate(ctx, lo, hi)
	if err != nil {
		return nil, types.NewStorageFailure("get pair stats", err)
	}
	if !found {
		return nil, insufficientData("the two symbols share no trading dates")
	}

	cached, ok, err := s.cache.GetPairStats(ctx, lo, hi)
	if err != nil {
		return nil, types.NewStorageFailure("get pair stats", err)
	}
	if ok && sameDate(cached.LastUpdated, token) {
		return cached, nil
	}

	pairs, err := s.prices.AlignedCloses(ctx, lo, hi)
	if err != nil {
		return nil, types.NewStorageFailure("get pair stats", err)
	}
	closesLo, err := s.prices.Closes(ctx, lo)
	if err != nil {
		return nil, types.NewStorageFailure("get pair stats", err)
	}
	closesHi, err := s.prices.Closes(ctx, hi)
	if err != nil {
		return nil, types.NewStorageFailure("get pair stats", err)
	}

	cov, err := s.engine.Covariance(pairs)
	if err != nil {
		return nil, err
	}
	corr, err := s.engine.Correlation(pairs, closesLo, closesHi)
	if err != nil {
		return nil, err
	}

	stats := &models.PairStats{
		Symbol1:     lo,
		Symbol2:     hi,
		LastUpdated: token,
		Covariance:  cov,
		Correlation: corr,
	}
	if err := s.cache.UpsertPairStats(ctx, stats); err != nil {
		return nil, types.NewStorageFailure("cache pair stats", err)
	}

	return stats, nil
}

// sameDate compares two freshness tokens at day resolution
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ensure storage repositories satisfy the service interfaces
var (
	_ PriceHistoryStore = (*storage.PriceRepository)(nil)
	_ StatCacheStore    = (*storage.StatCacheRepository)(nil)
)
