package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	ghandlers "github.com/gorilla/handlers"

	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/websocket"
)

func New(
	tokens *middleware.SessionTokens,
	sessionHandler *handlers.SessionHandler,
	profileHandler *handlers.ProfileHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	log *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))
	r.Use(ghandlers.CORS(
		ghandlers.AllowedOrigins([]string{frontendURL}),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		ghandlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
		ghandlers.AllowCredentials(),
	))

	// Health check
	r.Get("/health", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profile", profileHandler.Get)
		r.Post("/sessions", sessionHandler.Create)

		// ──── Session Routes (token) ────
		r.Route("/session", func(r chi.Router) {
			r.Use(tokens.Middleware)
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.End)
			r.Post("/messages", sessionHandler.SubmitMessage)
			r.Put("/draft", sessionHandler.UpdateDraft)
		})

		// ──── WebSocket (token query param) ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
