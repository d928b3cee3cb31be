package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stock-portfolio/internal/models"
)

// TestPriceRepository_MarketSeriesOrdering pins the pair convention of the
// market series: index 0 is the symbol's own close, index 1 is the per-date
// sum over all symbols. Beta divides by the variance of index 1, so
// swapping the two silently inverts the regression.
func TestPriceRepository_MarketSeriesOrdering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := NewPostgresDB(testPostgresConfig())
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
		return
	}
	defer db.Close()

	ctx := testContext(t)
	prices := NewPriceRepository(db)

	symA := fmt.Sprintf("ITESTA%d", time.Now().UnixNano()%1000000)
	symB := fmt.Sprintf("ITESTB%d", time.Now().UnixNano()%1000000)
	t.Cleanup(func() {
		_, _ = db.Pool().Exec(ctx, `DELETE FROM stock_history WHERE symbol IN ($1, $2)`, symA, symB)
	})

	day := func(n int) time.Time {
		return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
	}
	bar := func(symbol string, date time.Time, close int64) *models.PriceBar {
		c := decimal.NewFromInt(close)
		return &models.PriceBar{Symbol: symbol, Date: date, Close: &c}
	}

	closesA := []int64{100, 120, 96}
	closesB := []int64{900, 980, 894}
	for i := 0; i < 3; i++ {
		if err := prices.InsertBar(ctx, bar(symA, day(i+1), closesA[i])); err != nil {
			t.Fatalf("InsertBar(%s) error = %v", symA, err)
		}
		if err := prices.InsertBar(ctx, bar(symB, day(i+1), closesB[i])); err != nil {
			t.Fatalf("InsertBar(%s) error = %v", symB, err)
		}
	}

	series, err := prices.MarketSeries(ctx, symA)
	if err != nil {
		t.Fatalf("MarketSeries() error = %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("Expected 3 market points, got %d", len(series))
	}

	for i, point := range series {
		wantClose := float64(closesA[i])
		wantTotal := float64(closesA[i] + closesB[i])
		// The test database may hold bars for other symbols on these
		// dates, so the total is at least the two seeded closes.
		if point[0] != wantClose {
			t.Errorf("point %d: symbol close = %v, want %v", i, point[0], wantClose)
		}
		if point[1] < wantTotal {
			t.Errorf("point %d: market sum = %v, want at least %v", i, point[1], wantTotal)
		}
		if point[0] >= point[1] {
			t.Errorf("point %d: symbol close %v not below market sum %v - pair order swapped?", i, point[0], point[1])
		}
	}
}

// TestLedgerIdentity_SumCashDeltas verifies that the initial balance plus
// the summed transaction deltas equals the current portfolio balance.
func TestLedgerIdentity_SumCashDeltas(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := NewPostgresDB(testPostgresConfig())
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
		return
	}
	defer db.Close()

	ctx := testContext(t)
	accounts := NewAccountRepository(db)
	collections := NewCollectionRepository(db)
	transactions := NewTransactionRepository(db)

	username := fmt.Sprintf("ledger_itest_%d", time.Now().UnixNano())
	accountID, err := accounts.Create(ctx, nil, username, "x")
	if err != nil {
		t.Fatalf("Create account error = %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool().Exec(ctx, `DELETE FROM account WHERE account_id = $1`, accountID)
	})

	initial := decimal.NewFromInt(1000)
	portfolioID, err := collections.CreatePortfolio(ctx, nil, "Ledger Check", accountID, initial)
	if err != nil {
		t.Fatalf("CreatePortfolio error = %v", err)
	}

	// A buy followed by a partial sell, mirrored in balance and log.
	deltas := []decimal.Decimal{decimal.NewFromInt(-600), decimal.NewFromInt(240)}
	shares := []int64{5, -2}
	for i, delta := range deltas {
		if _, err := collections.UpdateBalance(ctx, nil, portfolioID, delta); err != nil {
			t.Fatalf("UpdateBalance error = %v", err)
		}
		if err := transactions.Append(ctx, nil, portfolioID, "AAPL", shares[i], delta); err != nil {
			t.Fatalf("Append error = %v", err)
		}
	}

	sum, err := transactions.SumCashDeltas(ctx, portfolioID)
	if err != nil {
		t.Fatalf("SumCashDeltas error = %v", err)
	}

	portfolio, found, err := collections.Get(ctx, nil, portfolioID)
	if err != nil || !found {
		t.Fatalf("Get portfolio error = %v, found = %v", err, found)
	}
	if portfolio.Balance == nil {
		t.Fatal("Expected portfolio balance to be set")
	}

	if want := initial.Add(sum); !portfolio.Balance.Equal(want) {
		t.Errorf("Balance = %s, want initial + sum of deltas = %s", portfolio.Balance, want)
	}
}
