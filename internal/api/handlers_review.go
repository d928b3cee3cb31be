package api

import (
	"net/http"
)

// handleListReviews handles GET /api/stock-lists/:id/reviews
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid stock list id", nil)
		return
	}

	reviews, err := s.reviews.List(r.Context(), id, actor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reviews)
}

// handleCreateReview handles POST /api/stock-lists/:id/reviews
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid stock list id", nil)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := s.reviews.Create(r.Context(), id, actor, req.Text); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// handleUpdateReview handles PUT /api/stock-lists/:id/reviews - Edit the
// actor's own review
func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid stock list id", nil)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := s.reviews.Update(r.Context(), id, actor, req.Text); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleDeleteReview handles DELETE /api/stock-lists/:id/reviews/:reviewerId
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid stock list id", nil)
		return
	}
	reviewerID, ok := pathID(r, "reviewerId")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid reviewer id", nil)
		return
	}

	if err := s.reviews.Delete(r.Context(), id, reviewerID, actor); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
