package api

import (
	"net/http"

	"github.com/stock-portfolio/internal/types"
)

// handleListStockLists handles GET /api/stock-lists - The actor's lists
func (s *Server) handleListStockLists(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, limit := pagination(r)
	lists, total, err := s.collections.ListStockLists(r.Context(), actor, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pagedResponse{Items: lists, Total: total})
}

// handleCreateStockList handles POST /api/stock-lists
func (s *Server) handleCreateStockList(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req struct {
		Name       string           `json:"name"`
		Visibility types.Visibility `json:"visibility"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Visibility == "" {
		req.Visibility = types.VisibilityPrivate
	}

	id, err := s.collections.CreateStockList(r.Context(), req.Name, actor, req.Visibility)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"id": id})
}

// handleListPublicStockLists handles GET /api/stock-lists/public
func (s *Server) handleListPublicStockLists(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	lists, total, err := s.collections.ListPublicStockLists(r.Context(), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pagedResponse{Items: lists, Total: total})
}

// handleListSharedStockLists handles GET /api/stock-lists/shared - Shared
// lists owned by the actor's friends
func (s *Server) handleListSharedStockLists(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, limit := pagination(r)
	lists, total, err := s.collections.ListSharedStockLists(r.Context(), actor, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pagedResponse{Items: lists, Total: total})
}
