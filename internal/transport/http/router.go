package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the REST routes. wsHandler, when non-nil, is mounted
// at /ws for the realtime game transport.
func NewRouter(h *Handler, oauth *OAuthHandler, allowedOrigins []string, wsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.HandleSignup)
		r.Post("/auth/login", h.HandleLogin)
		if oauth != nil && oauth.Enabled() {
			r.Get("/auth/google/login", oauth.HandleGoogleLogin)
			r.Get("/auth/google/callback", oauth.HandleGoogleCallback)
		}
		r.Get("/leaderboard", h.HandleLeaderboard)
		r.Get("/games/live", h.HandleLiveGames)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/auth/logout", h.HandleLogout)
			r.Get("/me", h.HandleMe)
			r.Get("/history", h.HandleHistory)
		})
	})

	if wsHandler != nil {
		r.Handle("/ws", wsHandler)
	}
	return r
}
