package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stock-portfolio/internal/models"
)

// StatCacheRepository persists derived statistics keyed by freshness
// token. Upserts are last-writer-wins: racing recomputes of the same stale
// key produce identical values, so no locking is needed.
type StatCacheRepository struct {
	db *PostgresDB
}

// NewStatCacheRepository creates a new statistics cache repository
func NewStatCacheRepository(db *PostgresDB) *StatCacheRepository {
	return &StatCacheRepository{db: db}
}

// GetSymbolStats retrieves the cached single-symbol statistics row
func (r *StatCacheRepository) GetSymbolStats(ctx context.Context, symbol string) (*models.SymbolStats, bool, error) {
	var stats models.SymbolStats
	err := r.db.Pool().QueryRow(ctx, `
		SELECT symbol, last_updated, beta, variance, coef
		FROM stock_stats
		WHERE symbol = $1
	`, symbol).Scan(
		&stats.Symbol,
		&stats.LastUpdated,
		&stats.Beta,
		&stats.Variance,
		&stats.CoefficientOfVariation,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get symbol stats: %w", err)
	}

	return &stats, true, nil
}

// UpsertSymbolStats writes the single-symbol statistics row, replacing any
// existing entry for the symbol
func (r *StatCacheRepository) UpsertSymbolStats(ctx context.Context, stats *models.SymbolStats) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO stock_stats (symbol, last_updated, beta, variance, coef)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE
		SET last_updated = EXCLUDED.last_updated,
		    beta = EXCLUDED.beta,
		    variance = EXCLUDED.variance,
		    coef = EXCLUDED.coef
	`, stats.Symbol, stats.LastUpdated, stats.Beta, stats.Variance, stats.CoefficientOfVariation)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol stats: %w", err)
	}
	return nil
}

// GetPairStats retrieves the cached pair statistics row. Symbols must be
// passed in normalized order (symbol1 < symbol2).
func (r *StatCacheRepository) GetPairStats(ctx context.Context, symbol1, symbol2 string) (*models.PairStats, bool, error) {
	var stats models.PairStats
	err := r.db.Pool().QueryRow(ctx, `
		SELECT symbol1, symbol2, last_updated, covariance, correlation
		FROM pair_stats
		WHERE symbol1 = $1 AND symbol2 = $2
	`, symbol1, symbol2).Scan(
		&stats.Symbol1,
		&stats.Symbol2,
		&stats.LastUpdated,
		&stats.Covariance,
		&stats.Correlation,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get pair stats: %w", err)
	}

	return &stats, true, nil
}

// UpsertPairStats writes the pair statistics row, replacing any existing
// entry for the normalized pair
func (r *StatCacheRepository) UpsertPairStats(ctx context.Context, stats *models.PairStats) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO pair_stats (symbol1, symbol2, last_updated, covariance, correlation)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol1, symbol2) DO UPDATE
		SET last_updated = EXCLUDED.last_updated,
		    covariance = EXCLUDED.covariance,
		    correlation = EXCLUDED.correlation
	`, stats.Symbol1, stats.Symbol2, stats.LastUpdated, stats.Covariance, stats.Correlation)
	if err != nil {
		return fmt.Errorf("failed to upsert pair stats: %w", err)
	}
	return nil
}
