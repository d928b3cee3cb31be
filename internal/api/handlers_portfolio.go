package api

import (
	"net/http"

	"github.com/shopspring/decimal"
)

// handleListPortfolios handles GET /api/portfolios - The actor's portfolios
func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, limit := pagination(r)
	portfolios, total, err := s.collections.ListPortfolios(r.Context(), actor, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pagedResponse{Items: portfolios, Total: total})
}

// handleCreatePortfolio handles POST /api/portfolios - Create a portfolio
func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Name    string           `json:"name"`
		Balance *decimal.Decimal `json:"balance"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	id, err := s.collections.CreatePortfolio(r.Context(), req.Name, actor, req.Balance)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

// handleDeleteCollection handles DELETE /api/portfolios/:id and
// DELETE /api/stock-lists/:id
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid collection id", nil)
		return
	}

	if err := s.collections.Delete(r.Context(), id, actor); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleGetBalance handles GET /api/portfolios/:id/balance
func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid portfolio id", nil)
		return
	}

	balance, err := s.ledger.GetBalance(r.Context(), id, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"balance": balance})
}

// handleAdjustBalance handles POST /api/portfolios/:id/balance - Deposit or
// withdraw cash
func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid portfolio id", nil)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	balance, err := s.ledger.AdjustBalance(r.Context(), id, req.Amount, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"balance": balance})
}

// handleListTransactions handles GET /api/portfolios/:id/transactions
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid portfolio id", nil)
		return
	}

	transactions, total, err := s.ledger.ListTransactions(r.Context(), id, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pagedResponse{Items: transactions, Total: total})
}

// handleGetHoldings handles GET holdings on both portfolios and stock lists
func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid collection id", nil)
		return
	}

	holdings, err := s.collections.GetHoldings(r.Context(), id, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, holdings)
}

// handleTrade handles POST holdings on both portfolios and stock lists.
// Positive shares buy, negative shares sell.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid collection id", nil)
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
		Shares int64  `json:"shares"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	outcome, err := s.ledger.ApplyTrade(r.Context(), id, req.Symbol, req.Shares, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"symbol":  req.Symbol,
		"shares":  req.Shares,
	})
}
