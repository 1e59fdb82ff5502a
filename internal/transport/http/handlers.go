// Package http exposes the REST surface: auth, profile, game history
// and the leaderboard.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/repository/postgres"
	"github.com/akghosh/connect4/internal/repository/redicache"
	"github.com/akghosh/connect4/internal/service/session"
	"github.com/akghosh/connect4/pkg/auth"
)

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler bundles the dependencies of the REST endpoints.
type Handler struct {
	users      *postgres.UserRepo
	games      *postgres.GameRepo
	sessions   *redicache.Cache
	matches    *session.Manager
	tokens     *auth.TokenIssuer
	sessionTTL time.Duration
}

func NewHandler(users *postgres.UserRepo, games *postgres.GameRepo, sessions *redicache.Cache, matches *session.Manager, tokens *auth.TokenIssuer, sessionTTL time.Duration) *Handler {
	return &Handler{
		users:      users,
		games:      games,
		sessions:   sessions,
		matches:    matches,
		tokens:     tokens,
		sessionTTL: sessionTTL,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func validateUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "Username is required"
	}
	if len(username) < 3 || len(username) > 50 {
		return "Username must be between 3 and 50 characters"
	}
	if domain.IsBotName(username) || strings.EqualFold(username, domain.BotUsername) {
		return "Username is reserved"
	}
	return ""
}

// HandleSignup registers a new account and logs it in.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if msg := validateUsername(req.Username); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeJSONError(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	userID, err := h.users.Create(req.Username, hash)
	if errors.Is(err, domain.ErrUsernameTaken) {
		writeJSONError(w, "Username already taken", http.StatusConflict)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("signup failed")
		writeJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.issueToken(r.Context(), w, userID, req.Username, http.StatusCreated)
}

// HandleLogin checks credentials and issues a token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByUsername(strings.TrimSpace(req.Username))
	if errors.Is(err, domain.ErrUserNotFound) {
		writeJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("login lookup failed")
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	h.issueToken(r.Context(), w, user.ID, user.Username, http.StatusOK)
}

func (h *Handler) issueToken(ctx context.Context, w http.ResponseWriter, userID int64, username string, status int) {
	sessionID := auth.NewSessionID()
	token, err := h.tokens.Generate(userID, username, sessionID)
	if err != nil {
		writeJSONError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	if err := h.sessions.SetSession(ctx, sessionID, userID, h.sessionTTL); err != nil {
		log.Warn().Err(err).Msg("failed to cache session")
	}
	writeJSON(w, status, AuthResponse{Token: token, UserID: userID, Username: username})
}

// HandleLogout invalidates the caller's cached session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.sessions.DeleteSession(r.Context(), claims.SessionID); err != nil {
		log.Warn().Err(err).Msg("failed to delete session")
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated player's profile and stats.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	user, err := h.users.GetByID(claims.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		writeJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleHistory returns the caller's recent games.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	records, err := h.games.History(claims.UserID, limit)
	if err != nil {
		log.Error().Err(err).Msg("history lookup failed")
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.GameRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleLiveGames lists games currently in progress, for spectators.
func (h *Handler) HandleLiveGames(w http.ResponseWriter, _ *http.Request) {
	summaries := []session.Summary{}
	for _, gs := range h.matches.LiveSessions() {
		summaries = append(summaries, gs.Summary())
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HandleLeaderboard returns the top players by wins.
func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.users.Leaderboard(25)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard lookup failed")
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
