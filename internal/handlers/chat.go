package handlers

import (
	"net/http"

	"portfolio-backend/internal/models"
)

// SubmitMessage hands the visitor's text to the conversation. A submission the
// conversation refuses (blank text, or a reply still pending) is reported with
// accepted=false and the unchanged view rather than as an error.
func (h *SessionHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req models.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	accepted := s.Conversation.Submit(req.Text)
	status := http.StatusOK
	if accepted {
		status = http.StatusAccepted
	}

	writeJSON(w, status, models.SubmitResponse{
		Accepted:     accepted,
		Conversation: h.sessions.View(s),
	})
}

func (h *SessionHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req models.DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.Conversation.SetDraft(req.Text)
	writeJSON(w, http.StatusOK, h.sessions.View(s))
}
