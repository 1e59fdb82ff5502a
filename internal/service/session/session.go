// Package session owns live matches: routing moves between the two sides,
// asking the bot service for replies, handling disconnects, and recording
// finished games.
package session

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/service/bot"
	"github.com/akghosh/connect4/internal/service/game"
)

// Sender pushes server messages to a connected user.
type Sender interface {
	SendMessage(userID int64, message domain.ServerMessage) error
}

// Recorder persists finished games and player stats. Both methods are
// best-effort; persistence failures never abort a live game.
type Recorder interface {
	SaveGame(gameID string, winner, reason string, moveCount int, player1ID int64, player2ID *int64) error
	UpdatePlayerStats(userID int64, won bool) error
}

// defaultReconnectGrace applies when the manager is built without an
// explicit reconnect window.
const defaultReconnectGrace = 30 * time.Second

type GameSession struct {
	GameID          string
	Player1ID       int64
	Player1Username string
	Player2ID       *int64 // nil when playing the bot
	Player2Username string
	BotDifficulty   bot.Difficulty
	Game            *game.Game
	CreatedAt       time.Time
	FinishedAt      time.Time

	bots           *bot.Service
	recorder       Recorder
	reconnectGrace time.Duration
	disconnected   map[int64]bool
	graceTimers    map[int64]*time.Timer
	finished       bool // set on any ending, including forfeits the board never sees
	mu             sync.Mutex
}

// Summary is a read-only snapshot of a session, safe to hand to
// spectator listings.
type Summary struct {
	GameID      string    `json:"game_id"`
	Player1     string    `json:"player1"`
	Player2     string    `json:"player2"`
	MoveCount   int       `json:"move_count"`
	CurrentTurn int       `json:"current_turn"`
	CreatedAt   time.Time `json:"created_at"`
}

func (gs *GameSession) Summary() Summary {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return Summary{
		GameID:      gs.GameID,
		Player1:     gs.Player1Username,
		Player2:     gs.Player2Username,
		MoveCount:   gs.Game.MoveCount(),
		CurrentTurn: int(gs.Game.CurrentPlayer),
		CreatedAt:   gs.CreatedAt,
	}
}

// IsFinished reports whether the session ended, by play or by forfeit.
func (gs *GameSession) IsFinished() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.isOver()
}

func (gs *GameSession) isOver() bool {
	return gs.finished || gs.Game.IsFinished()
}

func generateGameID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", b)
}

func (gs *GameSession) IsBot() bool {
	return gs.Player2ID == nil
}

func (gs *GameSession) playerID(userID int64) (domain.PlayerID, bool) {
	if userID == gs.Player1ID {
		return domain.Player1, true
	}
	if gs.Player2ID != nil && userID == *gs.Player2ID {
		return domain.Player2, true
	}
	return domain.Empty, false
}

func (gs *GameSession) username(p domain.PlayerID) string {
	if p == domain.Player1 {
		return gs.Player1Username
	}
	return gs.Player2Username
}

func (gs *GameSession) opponentID(userID int64) (int64, bool) {
	if userID == gs.Player1ID {
		if gs.Player2ID == nil {
			return 0, false
		}
		return *gs.Player2ID, true
	}
	return gs.Player1ID, true
}

// broadcast sends a message to both human players.
func (gs *GameSession) broadcast(conn Sender, msg domain.ServerMessage) {
	if err := conn.SendMessage(gs.Player1ID, msg); err != nil {
		log.Debug().Err(err).Str("game_id", gs.GameID).Msg("send to player1 failed")
	}
	if gs.Player2ID != nil {
		if err := conn.SendMessage(*gs.Player2ID, msg); err != nil {
			log.Debug().Err(err).Str("game_id", gs.GameID).Msg("send to player2 failed")
		}
	}
}

// HandleMove applies a player's move, fans out the result, and lets the bot
// answer when the opponent is a bot.
func (gs *GameSession) HandleMove(userID int64, column int, conn Sender) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	player, ok := gs.playerID(userID)
	if !ok {
		return fmt.Errorf("player not in this game")
	}
	if gs.finished {
		return domain.ErrGameOver
	}

	row, err := gs.Game.MakeMove(player, column)
	if err != nil {
		return err
	}

	if gs.finishIfOver(conn) {
		return nil
	}

	gs.broadcast(conn, domain.ServerMessage{
		Type:     "move_made",
		Column:   column,
		Row:      row,
		Player:   int(player),
		Board:    gs.Game.Grid(),
		NextTurn: int(gs.Game.CurrentPlayer),
	})

	if gs.IsBot() && gs.Game.CurrentPlayer == domain.Player2 {
		return gs.playBotMove(conn)
	}
	return nil
}

func (gs *GameSession) playBotMove(conn Sender) error {
	botColumn := gs.bots.ChooseMove(gs.Game.Board, gs.BotDifficulty)
	botRow, err := gs.Game.MakeMove(domain.Player2, botColumn)
	if err != nil {
		return fmt.Errorf("bot move failed: %w", err)
	}

	if gs.finishIfOver(conn) {
		return nil
	}

	gs.broadcast(conn, domain.ServerMessage{
		Type:     "move_made",
		Column:   botColumn,
		Row:      botRow,
		Player:   int(domain.Player2),
		Board:    gs.Game.Grid(),
		NextTurn: int(gs.Game.CurrentPlayer),
	})
	return nil
}

// finishIfOver reports whether the game just ended, and if so notifies both
// players and records the result.
func (gs *GameSession) finishIfOver(conn Sender) bool {
	switch gs.Game.Status {
	case domain.StatusWon:
		winner := gs.username(gs.Game.Winner)
		gs.finish(conn, winner, "connect_four")
		return true
	case domain.StatusDraw:
		gs.finish(conn, "draw", "draw")
		return true
	}
	return false
}

func (gs *GameSession) finish(conn Sender, winner, reason string) {
	gs.finished = true
	gs.FinishedAt = time.Now()
	for id, timer := range gs.graceTimers {
		timer.Stop()
		delete(gs.graceTimers, id)
	}

	gs.broadcast(conn, domain.ServerMessage{
		Type:   "game_over",
		GameID: gs.GameID,
		Winner: winner,
		Reason: reason,
		Board:  gs.Game.Grid(),
	})
	gs.record(winner, reason)
}

func (gs *GameSession) record(winner, reason string) {
	if gs.recorder == nil {
		return
	}
	if err := gs.recorder.SaveGame(gs.GameID, winner, reason, gs.Game.MoveCount(), gs.Player1ID, gs.Player2ID); err != nil {
		log.Error().Err(err).Str("game_id", gs.GameID).Msg("failed to save game")
	}
	if err := gs.recorder.UpdatePlayerStats(gs.Player1ID, winner == gs.Player1Username); err != nil {
		log.Error().Err(err).Int64("user_id", gs.Player1ID).Msg("failed to update stats")
	}
	if gs.Player2ID != nil {
		if err := gs.recorder.UpdatePlayerStats(*gs.Player2ID, winner == gs.Player2Username); err != nil {
			log.Error().Err(err).Int64("user_id", *gs.Player2ID).Msg("failed to update stats")
		}
	}
}

// HandleDisconnect marks a player as gone and starts the reconnect grace
// timer; if it expires the opponent wins by abandonment.
func (gs *GameSession) HandleDisconnect(userID int64, conn Sender) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.isOver() {
		return
	}
	gs.disconnected[userID] = true

	if oppID, ok := gs.opponentID(userID); ok {
		_ = conn.SendMessage(oppID, domain.ServerMessage{
			Type:    "opponent_disconnected",
			Message: "Your opponent has disconnected. Waiting for reconnection...",
		})
	}

	// one timer per absent player, so a second disconnect cannot clobber
	// the first player's countdown
	gs.graceTimers[userID] = time.AfterFunc(gs.reconnectGrace, func() {
		gs.handleGraceExpired(userID, conn)
	})
}

func (gs *GameSession) handleGraceExpired(userID int64, conn Sender) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	delete(gs.graceTimers, userID)
	if !gs.disconnected[userID] || gs.isOver() {
		return
	}

	player, _ := gs.playerID(userID)
	winner := gs.username(player.Opponent())
	gs.finish(conn, winner, "opponent_disconnected")
}

// HandleReconnect restores a returning player's view of the game.
func (gs *GameSession) HandleReconnect(userID int64, conn Sender) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if !gs.disconnected[userID] {
		return fmt.Errorf("player was not disconnected")
	}
	delete(gs.disconnected, userID)

	if timer, ok := gs.graceTimers[userID]; ok {
		timer.Stop()
		delete(gs.graceTimers, userID)
	}

	player, _ := gs.playerID(userID)
	_ = conn.SendMessage(userID, domain.ServerMessage{
		Type:        "game_start",
		GameID:      gs.GameID,
		Opponent:    gs.username(player.Opponent()),
		YourPlayer:  int(player),
		CurrentTurn: int(gs.Game.CurrentPlayer),
		Board:       gs.Game.Grid(),
	})
	if oppID, ok := gs.opponentID(userID); ok {
		_ = conn.SendMessage(oppID, domain.ServerMessage{
			Type:    "opponent_reconnected",
			Message: "Your opponent has reconnected. Resuming the game.",
		})
	}
	return nil
}

// Forfeit ends the game immediately in the opponent's favor. Used when a
// player abandons the match to start a new one.
func (gs *GameSession) Forfeit(userID int64, conn Sender) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.isOver() {
		return
	}
	player, ok := gs.playerID(userID)
	if !ok {
		return
	}
	gs.finish(conn, gs.username(player.Opponent()), "abandonment")
}
