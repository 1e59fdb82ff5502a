package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/service/bot"
)

// fakeSender records every message per user.
type fakeSender struct {
	mu       sync.Mutex
	messages map[int64][]domain.ServerMessage
}

func newFakeSender() *fakeSender {
	return &fakeSender{messages: make(map[int64][]domain.ServerMessage)}
}

func (f *fakeSender) SendMessage(userID int64, msg domain.ServerMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[userID] = append(f.messages[userID], msg)
	return nil
}

func (f *fakeSender) lastType(userID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[userID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Type
}

func (f *fakeSender) count(userID int64, msgType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages[userID] {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

// fakeRecorder captures persistence calls.
type fakeRecorder struct {
	mu    sync.Mutex
	games []string
	stats map[int64]bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{stats: make(map[int64]bool)}
}

func (f *fakeRecorder) SaveGame(gameID, winner, reason string, moveCount int, p1 int64, p2 *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games = append(f.games, gameID)
	return nil
}

func (f *fakeRecorder) UpdatePlayerStats(userID int64, won bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[userID] = won
	return nil
}

func TestCreateSessionNotifiesBothPlayers(t *testing.T) {
	conn := newFakeSender()
	m := NewManager(bot.NewService(nil), nil, 0)

	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", conn)

	require.NotEmpty(t, gs.GameID)
	assert.Equal(t, "game_start", conn.lastType(1))
	assert.Equal(t, "game_start", conn.lastType(2))
	assert.True(t, m.HasActiveGame(1))
	assert.True(t, m.HasActiveGame(2))
}

func TestHumanMatchMoveFanout(t *testing.T) {
	conn := newFakeSender()
	m := NewManager(bot.NewService(nil), nil, 0)
	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", conn)

	require.NoError(t, gs.HandleMove(1, 3, conn))
	assert.Equal(t, 1, conn.count(1, "move_made"))
	assert.Equal(t, 1, conn.count(2, "move_made"))

	// not bob's board position yet: alice cannot move twice in a row
	err := gs.HandleMove(1, 3, conn)
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)
}

func TestBotSessionReplies(t *testing.T) {
	conn := newFakeSender()
	m := NewManager(bot.NewService(nil), nil, 0)
	gs := m.CreateSession(1, "alice", nil, "Alice", bot.DifficultyEasy, conn)

	require.True(t, gs.IsBot())
	require.NoError(t, gs.HandleMove(1, 3, conn))

	// one message for the human's move and one for the bot's reply
	assert.Equal(t, 2, conn.count(1, "move_made"))
	assert.Equal(t, domain.Player1, gs.Game.CurrentPlayer)
}

func TestFinishedGameIsRecorded(t *testing.T) {
	conn := newFakeSender()
	rec := newFakeRecorder()
	m := NewManager(bot.NewService(nil), rec, 0)
	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", conn)

	// alice wins with a vertical four in column 0
	moves := []struct {
		user int64
		col  int
	}{
		{1, 0}, {2, 1}, {1, 0}, {2, 1}, {1, 0}, {2, 1}, {1, 0},
	}
	for _, mv := range moves {
		require.NoError(t, gs.HandleMove(mv.user, mv.col, conn))
	}

	assert.Equal(t, "game_over", conn.lastType(1))
	assert.Equal(t, "game_over", conn.lastType(2))
	require.Len(t, rec.games, 1)
	assert.True(t, rec.stats[1])
	assert.False(t, rec.stats[2])

	// a finished session cannot accept more moves
	err := gs.HandleMove(2, 2, conn)
	assert.ErrorIs(t, err, domain.ErrGameOver)
}

func TestDisconnectReconnect(t *testing.T) {
	conn := newFakeSender()
	m := NewManager(bot.NewService(nil), nil, 0)
	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", conn)

	gs.HandleDisconnect(1, conn)
	assert.Equal(t, "opponent_disconnected", conn.lastType(2))

	require.NoError(t, gs.HandleReconnect(1, conn))
	assert.Equal(t, "game_start", conn.lastType(1))
	assert.Equal(t, "opponent_reconnected", conn.lastType(2))

	// reconnecting twice is a caller error
	assert.Error(t, gs.HandleReconnect(1, conn))
}

func TestGraceExpiryForfeitsDisconnectedPlayer(t *testing.T) {
	conn := newFakeSender()
	rec := newFakeRecorder()
	m := NewManager(bot.NewService(nil), rec, 20*time.Millisecond)
	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", conn)

	gs.HandleDisconnect(1, conn)

	assert.Eventually(t, gs.IsFinished, time.Second, 5*time.Millisecond)
	assert.Equal(t, "game_over", conn.lastType(2))
	assert.False(t, rec.stats[1])
	assert.True(t, rec.stats[2])
}

func TestGraceTimersPerPlayer(t *testing.T) {
	conn := newFakeSender()
	rec := newFakeRecorder()
	m := NewManager(bot.NewService(nil), rec, 40*time.Millisecond)
	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", conn)

	gs.HandleDisconnect(1, conn)
	gs.HandleDisconnect(2, conn)
	require.NoError(t, gs.HandleReconnect(1, conn))

	// bob's countdown keeps running after alice comes back
	assert.Eventually(t, gs.IsFinished, time.Second, 5*time.Millisecond)
	assert.True(t, rec.stats[1])
	assert.False(t, rec.stats[2])
}

func TestForfeitAwardsOpponent(t *testing.T) {
	conn := newFakeSender()
	rec := newFakeRecorder()
	m := NewManager(bot.NewService(nil), rec, 0)
	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", conn)

	gs.Forfeit(1, conn)
	assert.True(t, gs.IsFinished())
	assert.Equal(t, "game_over", conn.lastType(2))
	assert.False(t, rec.stats[1])
	assert.True(t, rec.stats[2])
}

func TestSweepFinished(t *testing.T) {
	conn := newFakeSender()
	m := NewManager(bot.NewService(nil), nil, 0)
	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", conn)

	gs.Forfeit(1, conn)
	gs.FinishedAt = time.Now().Add(-time.Hour)

	removed := m.SweepFinished(time.Minute)
	assert.Equal(t, 1, removed)
	_, ok := m.GetByGameID(gs.GameID)
	assert.False(t, ok)
	assert.False(t, m.HasActiveGame(1))
}
