package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleListRequests handles GET /api/requests - Pending requests addressed
// to the actor
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, limit := pagination(r)
	ids, total, err := s.social.ListIncomingRequests(r.Context(), actor, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pagedResponse{Items: ids, Total: total})
}

// handleSendRequest handles POST /api/requests/:userId
func (s *Server) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	target, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid user id", nil)
		return
	}

	if err := s.social.SendRequest(r.Context(), actor, target); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "requested"})
}

// handleRespondToRequest handles POST /api/requests/:userId/respond -
// Accept or decline the request sent by :userId
func (s *Server) handleRespondToRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	requester, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid user id", nil)
		return
	}

	var req struct {
		Accept bool `json:"accept"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := s.social.RespondToRequest(r.Context(), actor, requester, req.Accept); err != nil {
		respondServiceError(w, err)
		return
	}

	status := "accepted"
	if !req.Accept {
		status = "declined"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// handleListFriends handles GET /api/friends
func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	page, limit := pagination(r)
	ids, total, err := s.social.ListFriends(r.Context(), actor, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pagedResponse{Items: ids, Total: total})
}

// handleRemoveFriend handles DELETE /api/friends/:username
func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	username := mux.Vars(r)["username"]

	if err := s.social.RemoveFriend(r.Context(), actor, username); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
