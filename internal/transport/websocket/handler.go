package websocket

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/service/bot"
	"github.com/akghosh/connect4/internal/service/matchmaking"
	"github.com/akghosh/connect4/internal/service/session"
	"github.com/akghosh/connect4/pkg/auth"
)

// Handler upgrades websocket connections and routes client messages.
type Handler struct {
	upgrader websocket.Upgrader
	tokens   *auth.TokenIssuer
	conns    *ConnectionManager
	queue    *matchmaking.Queue
	sessions *session.Manager
}

func NewHandler(tokens *auth.TokenIssuer, conns *ConnectionManager, queue *matchmaking.Queue, sessions *session.Manager, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		tokens:   tokens,
		conns:    conns,
		queue:    queue,
		sessions: sessions,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	go h.serve(conn)
}

func (h *Handler) serve(conn *websocket.Conn) {
	defer conn.Close()

	var userID int64
	var username string
	authenticated := false

	for {
		var msg domain.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if authenticated {
				h.handleClose(userID, conn)
			}
			return
		}

		if msg.JWT == "" {
			SendTo(conn, domain.ServerMessage{Type: "error", Reason: "not_authenticated", Message: "JWT token required"})
			continue
		}
		claims, err := h.tokens.Validate(msg.JWT)
		if err != nil {
			SendTo(conn, domain.ServerMessage{Type: "error", Reason: "invalid_token", Message: "Invalid or expired JWT token"})
			continue
		}

		if !authenticated {
			userID = claims.UserID
			username = claims.Username
			authenticated = true
			if old := h.conns.Add(userID, username, conn); old != nil {
				SendTo(old.Conn, domain.ServerMessage{Type: "error", Reason: "replaced", Message: "Logged in from another device"})
				old.Conn.Close()
			}
			log.Info().Int64("user_id", userID).Str("username", username).Msg("websocket connected")
		} else if claims.UserID != userID {
			SendTo(conn, domain.ServerMessage{Type: "error", Reason: "token_mismatch", Message: "JWT token does not match current user"})
			continue
		}

		h.route(msg, userID, username, conn)
	}
}

func (h *Handler) route(msg domain.ClientMessage, userID int64, username string, conn *websocket.Conn) {
	switch msg.Type {
	case "join_queue":
		h.handleJoinQueue(userID, username, msg.Difficulty)
	case "leave_queue":
		h.queue.Remove(userID)
		h.conns.SendMessage(userID, domain.ServerMessage{Type: "queue_left"})
	case "move":
		h.handleMove(userID, msg.Column)
	case "reconnect":
		h.handleReconnect(userID, msg.GameID)
	case "forfeit":
		h.handleForfeit(userID)
	default:
		SendTo(conn, domain.ServerMessage{Type: "error", Reason: "unknown_message_type", Message: "Unknown message type"})
	}
}

func (h *Handler) handleJoinQueue(userID int64, username, difficulty string) {
	// a player with a live game gives it up by queueing again
	if gs, ok := h.sessions.GetByUserID(userID); ok && !gs.IsFinished() {
		gs.Forfeit(userID, h.conns)
		h.sessions.Remove(gs.GameID)
	}

	h.queue.Add(userID, username, bot.ParseDifficulty(difficulty))
	h.conns.SendMessage(userID, domain.ServerMessage{Type: "queue_joined", Message: "Joined matchmaking queue"})
}

func (h *Handler) handleMove(userID int64, column int) {
	gs, ok := h.sessions.GetByUserID(userID)
	if !ok {
		h.conns.SendMessage(userID, domain.ServerMessage{Type: "error", Reason: "no_active_game", Message: "No active game"})
		return
	}
	if err := gs.HandleMove(userID, column, h.conns); err != nil {
		h.conns.SendMessage(userID, domain.ServerMessage{Type: "error", Reason: moveErrorReason(err), Message: err.Error()})
	}
}

func moveErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, domain.ErrColumnFull):
		return "column_full"
	case errors.Is(err, domain.ErrInvalidMove):
		return "invalid_move"
	case errors.Is(err, domain.ErrGameOver):
		return "game_over"
	}
	return "move_failed"
}

func (h *Handler) handleReconnect(userID int64, gameID string) {
	var gs *session.GameSession
	var ok bool
	if gameID != "" {
		gs, ok = h.sessions.GetByGameID(gameID)
	} else {
		gs, ok = h.sessions.GetByUserID(userID)
	}
	if !ok {
		h.conns.SendMessage(userID, domain.ServerMessage{Type: "error", Reason: "no_active_game", Message: "No game to reconnect to"})
		return
	}
	if err := gs.HandleReconnect(userID, h.conns); err != nil {
		h.conns.SendMessage(userID, domain.ServerMessage{Type: "error", Reason: "reconnect_failed", Message: err.Error()})
	}
}

func (h *Handler) handleForfeit(userID int64) {
	gs, ok := h.sessions.GetByUserID(userID)
	if !ok {
		h.conns.SendMessage(userID, domain.ServerMessage{Type: "error", Reason: "no_active_game", Message: "No active game"})
		return
	}
	gs.Forfeit(userID, h.conns)
}

func (h *Handler) handleClose(userID int64, conn *websocket.Conn) {
	h.conns.Remove(userID, conn)
	h.queue.Remove(userID)
	if gs, ok := h.sessions.GetByUserID(userID); ok && !gs.IsFinished() {
		gs.HandleDisconnect(userID, h.conns)
	}
	log.Info().Int64("user_id", userID).Msg("websocket disconnected")
}

// RunMatchmaker turns queue matches into game sessions. Blocks until
// stop closes.
func (h *Handler) RunMatchmaker(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case m := <-h.queue.Matches():
			h.sessions.CreateSession(m.Player1ID, m.Player1Username, m.Player2ID, m.Player2Username, m.BotDifficulty, h.conns)
		}
	}
}
