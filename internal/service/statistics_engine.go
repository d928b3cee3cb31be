package service

import (
	"math"

	"github.com/stock-portfolio/internal/types"
)

// StatisticsEngine computes risk statistics over daily close-price series.
// Inputs are plain slices so the math is independent of the store; the
// statistics service feeds it and caches the results.
type StatisticsEngine struct{}

// NewStatisticsEngine creates a new statistics engine
func NewStatisticsEngine() *StatisticsEngine {
	return &StatisticsEngine{}
}

func insufficientData(message string) *types.ServiceError {
	return &types.ServiceError{
		Code:    types.CodeInsufficientData,
		Message: message,
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the sample variance (n-1 divisor) of a close series.
// Needs at least two points.
func (e *StatisticsEngine) Variance(closes []float64) (float64, error) {
	n := len(closes)
	if n < 2 {
		return 0, insufficientData("not enough price history to compute variance")
	}

	m := mean(closes)
	var sum float64
	for _, c := range closes {
		d := c - m
		sum += d * d
	}

	return sum / float64(n-1), nil
}

// CoefficientOfVariation returns stddev/mean of a close series
func (e *StatisticsEngine) CoefficientOfVariation(closes []float64) (float64, error) {
	variance, err := e.Variance(closes)
	if err != nil {
		return 0, err
	}

	return math.Sqrt(variance) / mean(closes), nil
}

// Covariance returns the sample covariance (n-1 divisor) over pairs of
// closes aligned by trading date. Needs at least two shared dates.
func (e *StatisticsEngine) Covariance(pairs [][2]float64) (float64, error) {
	n := len(pairs)
	if n < 2 {
		return 0, insufficientData("not enough overlapping price history to compute covariance")
	}

	var meanA, meanB float64
	for _, p := range pairs {
		meanA += p[0]
		meanB += p[1]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var sum float64
	for _, p := range pairs {
		sum += (p[0] - meanA) * (p[1] - meanB)
	}

	return sum / float64(n-1), nil
}

// Correlation returns the correlation coefficient of two symbols. The
// covariance term runs over the date-aligned pairs while each standard
// deviation runs over that symbol's full close series, matching how the
// cached pair statistics are defined.
func (e *StatisticsEngine) Correlation(pairs [][2]float64, closesA, closesB []float64) (float64, error) {
	cov, err := e.Covariance(pairs)
	if err != nil {
		return 0, err
	}
	varA, err := e.Variance(closesA)
	if err != nil {
		return 0, err
	}
	varB, err := e.Variance(closesB)
	if err != nil {
		return 0, err
	}

	return cov / (math.Sqrt(varA) * math.Sqrt(varB)), nil
}

// Beta regresses a symbol's day-over-day relative returns against the
// market's, where series holds date-aligned (symbol close, market close)
// points and the market close is the summed close of all symbols on that
// date. The ratio of sums leaves the shared divisor out entirely.
func (e *StatisticsEngine) Beta(series [][2]float64) (float64, error) {
	n := len(series)
	if n < 2 {
		return 0, insufficientData("not enough price history to compute beta")
	}

	returns := make([][2]float64, 0, n-1)
	for i := 1; i < n; i++ {
		returns = append(returns, [2]float64{
			(series[i][0] - series[i-1][0]) / series[i-1][0],
			(series[i][1] - series[i-1][1]) / series[i-1][1],
		})
	}

	var meanSym, meanMkt float64
	for _, r := range returns {
		meanSym += r[0]
		meanMkt += r[1]
	}
	meanSym /= float64(len(returns))
	meanMkt /= float64(len(returns))

	var cov, mktVar float64
	for _, r := range returns {
		cov += (r[0] - meanSym) * (r[1] - meanMkt)
		mktVar += (r[1] - meanMkt) * (r[1] - meanMkt)
	}
	if mktVar == 0 {
		return 0, insufficientData("market returns show no variation")
	}

	return cov / mktVar, nil
}
