package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/session"
)

type sessionStore interface {
	Create() *session.Session
	Get(id uuid.UUID) (*session.Session, bool)
	End(id uuid.UUID) bool
	View(s *session.Session) models.ConversationView
}

type tokenIssuer interface {
	Issue(sessionID uuid.UUID) (string, time.Time, error)
}

type SessionHandler struct {
	sessions sessionStore
	tokens   tokenIssuer
	log      *slog.Logger
}

func NewSessionHandler(sessions sessionStore, tokens tokenIssuer, log *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens, log: log}
}

// Create starts a conversation for a new page visit.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()

	token, expiresAt, err := h.tokens.Issue(s.ID)
	if err != nil {
		h.sessions.End(s.ID)
		h.log.Error("issue session token", "session_id", s.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusCreated, models.SessionResponse{
		SessionID:    s.ID,
		Token:        token,
		ExpiresAt:    expiresAt,
		Conversation: h.sessions.View(s),
	})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.View(s))
}

// End discards the session and its transcript.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.End(middleware.GetSessionID(r.Context())) {
		writeJSON(w, http.StatusNotFound, errorResp("SESSION_NOT_FOUND", "Session not found", r))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves the token's session, writing a 404 when it is gone.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.sessions.Get(middleware.GetSessionID(r.Context()))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("SESSION_NOT_FOUND", "Session not found", r))
		return nil, false
	}
	return s, true
}
