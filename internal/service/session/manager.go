package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/service/bot"
	"github.com/akghosh/connect4/internal/service/game"
)

// Manager tracks every live session by game ID and by player.
type Manager struct {
	mu       sync.RWMutex
	byGameID map[string]*GameSession
	byUserID map[int64]string

	bots           *bot.Service
	recorder       Recorder
	reconnectGrace time.Duration
}

// NewManager builds a session manager. reconnectGrace is how long a
// disconnected player has to come back before forfeiting; zero or
// negative picks the default.
func NewManager(bots *bot.Service, recorder Recorder, reconnectGrace time.Duration) *Manager {
	if reconnectGrace <= 0 {
		reconnectGrace = defaultReconnectGrace
	}
	return &Manager{
		byGameID:       make(map[string]*GameSession),
		byUserID:       make(map[int64]string),
		bots:           bots,
		recorder:       recorder,
		reconnectGrace: reconnectGrace,
	}
}

// CreateSession starts a new game between two players (or one player and
// the bot) and sends both sides their game_start message.
func (m *Manager) CreateSession(player1ID int64, player1Username string, player2ID *int64, player2Username string, difficulty bot.Difficulty, conn Sender) *GameSession {
	gs := &GameSession{
		GameID:          generateGameID(),
		Player1ID:       player1ID,
		Player1Username: player1Username,
		Player2ID:       player2ID,
		Player2Username: player2Username,
		BotDifficulty:   difficulty,
		Game:            game.NewGame(),
		CreatedAt:       time.Now(),
		bots:            m.bots,
		recorder:        m.recorder,
		reconnectGrace:  m.reconnectGrace,
		disconnected:    make(map[int64]bool),
		graceTimers:     make(map[int64]*time.Timer),
	}

	m.mu.Lock()
	m.byGameID[gs.GameID] = gs
	m.byUserID[player1ID] = gs.GameID
	if player2ID != nil {
		m.byUserID[*player2ID] = gs.GameID
	}
	m.mu.Unlock()

	_ = conn.SendMessage(player1ID, domain.ServerMessage{
		Type:        "game_start",
		GameID:      gs.GameID,
		Opponent:    player2Username,
		YourPlayer:  int(domain.Player1),
		CurrentTurn: int(domain.Player1),
	})
	if player2ID != nil {
		_ = conn.SendMessage(*player2ID, domain.ServerMessage{
			Type:        "game_start",
			GameID:      gs.GameID,
			Opponent:    player1Username,
			YourPlayer:  int(domain.Player2),
			CurrentTurn: int(domain.Player1),
		})
	}

	log.Info().
		Str("game_id", gs.GameID).
		Str("player1", player1Username).
		Str("player2", player2Username).
		Bool("bot", gs.IsBot()).
		Msg("session created")
	return gs
}

func (m *Manager) GetByGameID(gameID string) (*GameSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gs, ok := m.byGameID[gameID]
	return gs, ok
}

func (m *Manager) GetByUserID(userID int64) (*GameSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gameID, ok := m.byUserID[userID]
	if !ok {
		return nil, false
	}
	gs, ok := m.byGameID[gameID]
	return gs, ok
}

// HasActiveGame reports whether the user is in a session that has not
// finished yet.
func (m *Manager) HasActiveGame(userID int64) bool {
	gs, ok := m.GetByUserID(userID)
	return ok && !gs.IsFinished()
}

func (m *Manager) Remove(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs, ok := m.byGameID[gameID]
	if !ok {
		return
	}
	delete(m.byGameID, gameID)
	if m.byUserID[gs.Player1ID] == gameID {
		delete(m.byUserID, gs.Player1ID)
	}
	if gs.Player2ID != nil && m.byUserID[*gs.Player2ID] == gameID {
		delete(m.byUserID, *gs.Player2ID)
	}
}

// LiveSessions returns a snapshot of unfinished sessions for spectators.
func (m *Manager) LiveSessions() []*GameSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*GameSession, 0, len(m.byGameID))
	for _, gs := range m.byGameID {
		if !gs.IsFinished() {
			out = append(out, gs)
		}
	}
	return out
}

// SweepFinished drops sessions that finished longer than maxAge ago and
// returns how many were removed.
func (m *Manager) SweepFinished(maxAge time.Duration) int {
	m.mu.RLock()
	var stale []string
	for id, gs := range m.byGameID {
		if gs.IsFinished() && !gs.FinishedAt.IsZero() && time.Since(gs.FinishedAt) > maxAge {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Remove(id)
	}
	if len(stale) > 0 {
		log.Debug().Int("count", len(stale)).Msg("swept finished sessions")
	}
	return len(stale)
}

// StartJanitor sweeps finished sessions on an interval until stop is closed.
func (m *Manager) StartJanitor(interval, maxAge time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.SweepFinished(maxAge)
			case <-stop:
				return
			}
		}
	}()
}
