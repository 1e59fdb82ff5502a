package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/service/bot"
	"github.com/akghosh/connect4/internal/service/session"
)

type nopSender struct{}

func (nopSender) SendMessage(int64, domain.ServerMessage) error { return nil }

func TestHandleLiveGames(t *testing.T) {
	m := session.NewManager(bot.NewService(nil), nil, 0)
	h := NewHandler(nil, nil, nil, m, nil, 0)

	rr := httptest.NewRecorder()
	h.HandleLiveGames(rr, httptest.NewRequest("GET", "/api/games/live", nil))
	assert.Equal(t, 200, rr.Code)

	var empty []session.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &empty))
	assert.Empty(t, empty)

	p2 := int64(2)
	gs := m.CreateSession(1, "alice", &p2, "bob", "", nopSender{})

	rr = httptest.NewRecorder()
	h.HandleLiveGames(rr, httptest.NewRequest("GET", "/api/games/live", nil))

	var live []session.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &live))
	require.Len(t, live, 1)
	assert.Equal(t, gs.GameID, live[0].GameID)
	assert.Equal(t, "alice", live[0].Player1)
	assert.Equal(t, "bob", live[0].Player2)
	assert.Equal(t, 0, live[0].MoveCount)

	// finished games drop off the listing
	gs.Forfeit(1, nopSender{})
	rr = httptest.NewRecorder()
	h.HandleLiveGames(rr, httptest.NewRequest("GET", "/api/games/live", nil))

	live = nil
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &live))
	assert.Empty(t, live)
}
