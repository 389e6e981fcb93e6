// ABOUTME: Chat message handlers: submit an operator message, read the transcript
// ABOUTME: Submission blocks until the assistant response is fully resolved

package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/2389/coven-desk/internal/store"
)

// MessageResponse is the JSON shape of one transcript entry. Content is the
// human-readable projection; entries that project to nothing (tool result
// turns) are omitted from listings.
type MessageResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func turnToResponse(t *store.Turn) MessageResponse {
	return MessageResponse{
		ID:        t.ID,
		SessionID: t.SessionID,
		Role:      t.Role,
		Content:   t.Display,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}

// SendMessageRequest is the JSON request body for POST /api/sessions/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// handleSendMessage handles POST /api/sessions/{sessionID}/messages.
// The call returns once the assistant's response is fully resolved; clients
// follow progress live over the session's WebSocket stream.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.sendJSONError(w, http.StatusBadRequest, "content is required")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	userTurn, err := s.chat.SubmitUserMessage(r.Context(), sessionID, req.Content)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, turnToResponse(userTurn))
}

// handleListMessages handles GET /api/sessions/{sessionID}/messages.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns, err := s.chat.GetHistory(r.Context(), sessionID)
	if err != nil {
		s.sendStoreError(w, err)
		return
	}

	response := make([]MessageResponse, 0, len(turns))
	for _, turn := range turns {
		if strings.TrimSpace(turn.Display) == "" {
			continue
		}
		response = append(response, turnToResponse(turn))
	}
	s.writeJSON(w, http.StatusOK, response)
}
