package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/models"
)

// PriceRepository is the read-only accessor over historical daily price
// bars. Bars are ingested out of band and immutable once written.
type PriceRepository struct {
	db *PostgresDB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *PostgresDB) *PriceRepository {
	return &PriceRepository{db: db}
}

// LatestClose returns the close of the latest bar with a non-null close
// for the symbol. A symbol with no such bar is (zero, false, nil).
func (r *PriceRepository) LatestClose(ctx context.Context, q Querier, symbol string) (decimal.Decimal, bool, error) {
	q = r.db.querier(q)
	var close decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT close
		FROM stock_history
		WHERE symbol = $1 AND close IS NOT NULL
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(&close)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, false, nil
		}
		return decimal.Decimal{}, false, fmt.Errorf("failed to get latest close: %w", err)
	}

	return close, true, nil
}

// Closes returns the symbol's full close series in date order
func (r *PriceRepository) Closes(ctx context.Context, symbol string) ([]float64, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT close
		FROM stock_history
		WHERE symbol = $1 AND close IS NOT NULL
		ORDER BY date
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get close series: %w", err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var close float64
		if err := rows.Scan(&close); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, close)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closes: %w", err)
	}

	return closes, nil
}

// AlignedCloses returns the two symbols' closes inner-joined on trading
// date, in date order. Only dates present in both series appear.
func (r *PriceRepository) AlignedCloses(ctx context.Context, symbolA, symbolB string) ([][2]float64, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT a.close, b.close
		FROM stock_history a
		JOIN stock_history b ON b.date = a.date
		WHERE a.symbol = $1 AND b.symbol = $2
		  AND a.close IS NOT NULL AND b.close IS NOT NULL
		ORDER BY a.date
	`, symbolA, symbolB)
	if err != nil {
		return nil, fmt.Errorf("failed to get aligned closes: %w", err)
	}
	defer rows.Close()

	var pairs [][2]float64
	for rows.Next() {
		var a, b float64
		if err := rows.Scan(&a, &b); err != nil {
			return nil, fmt.Errorf("failed to scan close pair: %w", err)
		}
		pairs = append(pairs, [2]float64{a, b})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating close pairs: %w", err)
	}

	return pairs, nil
}

// MarketSeries returns (symbol close, market sum) per date in date order,
// where the market sum is the equal-weighted sum of all tracked symbols'
// closes for that date. Only dates present in the symbol's own history
// appear. The pair order is the one the statistics engine's beta expects:
// symbol first, market second.
func (r *PriceRepository) MarketSeries(ctx context.Context, symbol string) ([][2]float64, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT sym.close, market.total
		FROM (
			SELECT date, SUM(close) AS total
			FROM stock_history
			GROUP BY date
		) market
		JOIN stock_history sym ON sym.date = market.date
		WHERE sym.symbol = $1 AND sym.close IS NOT NULL
		ORDER BY sym.date
	`, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get market series: %w", err)
	}
	defer rows.Close()

	var series [][2]float64
	for rows.Next() {
		var close, total float64
		if err := rows.Scan(&close, &total); err != nil {
			return nil, fmt.Errorf("failed to scan market point: %w", err)
		}
		series = append(series, [2]float64{close, total})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating market series: %w", err)
	}

	return series, nil
}

// MaxDate returns the latest trading date for a symbol, the freshness
// token for single-symbol statistics
func (r *PriceRepository) MaxDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	var date *time.Time
	err := r.db.Pool().QueryRow(ctx, `
		SELECT MAX(date)
		FROM stock_history
		WHERE symbol = $1
	`, symbol).Scan(&date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get max date: %w", err)
	}
	if date == nil {
		return time.Time{}, false, nil
	}

	return *date, true, nil
}

// MaxCommonDate returns the latest date present in both symbols' series,
// the freshness token for pair statistics
func (r *PriceRepository) MaxCommonDate(ctx context.Context, symbolA, symbolB string) (time.Time, bool, error) {
	var date *time.Time
	err := r.db.Pool().QueryRow(ctx, `
		SELECT MAX(a.date)
		FROM stock_history a
		JOIN stock_history b ON b.date = a.date
		WHERE a.symbol = $1 AND b.symbol = $2
	`, symbolA, symbolB).Scan(&date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get max common date: %w", err)
	}
	if date == nil {
		return time.Time{}, false, nil
	}

	return *date, true, nil
}

// InsertBar writes one price bar. The serving path never calls this; it
// exists for the ingestion tooling and integration tests.
func (r *PriceRepository) InsertBar(ctx context.Context, bar *models.PriceBar) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO stock_history (symbol, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, bar.Symbol, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	if err != nil {
		return fmt.Errorf("failed to insert price bar: %w", err)
	}
	return nil
}
