package models

import (
	"time"
)

// SymbolStats is the cached single-symbol statistics row. LastUpdated is
// the freshness token: the max date present in the symbol's price history
// at the time of the last recompute.
type SymbolStats struct {
	Symbol                 string    `json:"symbol" db:"symbol"`
	LastUpdated            time.Time `json:"lastUpdated" db:"last_updated"`
	Beta                   float64   `json:"beta" db:"beta"`
	Variance               float64   `json:"variance" db:"variance"`
	CoefficientOfVariation float64   `json:"coefficientOfVariation" db:"coef"`
}

// PairStats is the cached pair statistics row. The symbol pair is stored
// ordered (Symbol1 < Symbol2); LastUpdated is the max date over the
// intersection of the two symbols' trading dates.
type PairStats struct {
	Symbol1     string    `json:"symbol1" db:"symbol1"`
	Symbol2     string    `json:"symbol2" db:"symbol2"`
	LastUpdated time.Time `json:"lastUpdated" db:"last_updated"`
	Covariance  float64   `json:"covariance" db:"covariance"`
	Correlation float64   `json:"correlation" db:"correlation"`
}
