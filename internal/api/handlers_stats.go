package api

import (
	"net/http"
)

// handleSymbolStats handles GET /api/stats/stat1?sym= - Beta, variance and
// coefficient of variation for one symbol
func (s *Server) handleSymbolStats(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("sym")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Query parameter 'sym' is required", nil)
		return
	}

	stats, err := s.statistics.SymbolStats(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// handlePairStats handles GET /api/stats/stat2?sym1=&sym2= - Covariance and
// correlation for a pair of symbols
func (s *Server) handlePairStats(w http.ResponseWriter, r *http.Request) {
	sym1 := r.URL.Query().Get("sym1")
	sym2 := r.URL.Query().Get("sym2")
	if sym1 == "" || sym2 == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Query parameters 'sym1' and 'sym2' are required", nil)
		return
	}

	stats, err := s.statistics.PairStats(r.Context(), sym1, sym2)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
