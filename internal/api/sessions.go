// ABOUTME: Session CRUD handlers for the HTTP API
// ABOUTME: Sessions are created active and archived rather than edited in place

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/2389/coven-desk/internal/store"
)

// SessionResponse is the JSON shape of a session.
type SessionResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func sessionToResponse(s *store.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		Status:    s.Status,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateSessionRequest is the JSON request body for POST /api/sessions.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// UpdateSessionRequest is the JSON request body for PUT /api/sessions/{id}.
// Empty fields are left unchanged.
type UpdateSessionRequest struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// handleCreateSession handles POST /api/sessions.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := req.Title
	if title == "" {
		title = "New Session"
	}

	now := time.Now().UTC()
	session := &store.Session{
		ID:        uuid.New().String(),
		Title:     title,
		Status:    store.SessionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSession(r.Context(), session); err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, sessionToResponse(session))
}

// handleListSessions handles GET /api/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	response := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, sessionToResponse(session))
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleGetSession handles GET /api/sessions/{sessionID}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionToResponse(session))
}

// handleUpdateSession handles PUT /api/sessions/{sessionID}.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Status != "" && req.Status != store.SessionStatusActive && req.Status != store.SessionStatusArchived {
		s.sendJSONError(w, http.StatusBadRequest, "status must be active or archived")
		return
	}

	session, err := s.store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	if req.Title != "" {
		session.Title = req.Title
	}
	if req.Status != "" {
		session.Status = req.Status
	}
	session.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateSession(r.Context(), session); err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionToResponse(session))
}

// handleDeleteSession handles DELETE /api/sessions/{sessionID}.
// Turns and file metadata cascade with the session; live observers are
// detached from the registry but their connections stay open.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.store.DeleteSession(r.Context(), sessionID); err != nil {
		s.sendStoreError(w, err)
		return
	}
	s.registry.DropSession(sessionID)
	s.chat.ReleaseSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}
