package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akghosh/connect4/internal/domain"
)

func TestTurnEnforcement(t *testing.T) {
	g := NewGame()

	_, err := g.MakeMove(domain.Player2, 3)
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)

	row, err := g.MakeMove(domain.Player1, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, row)
	assert.Equal(t, domain.Player2, g.CurrentPlayer)

	row, err = g.MakeMove(domain.Player2, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, row)
}

func TestWinEndsGame(t *testing.T) {
	g := NewGame()
	// Player1 stacks column 0, Player2 column 1
	moves := []struct {
		player domain.PlayerID
		col    int
	}{
		{domain.Player1, 0}, {domain.Player2, 1},
		{domain.Player1, 0}, {domain.Player2, 1},
		{domain.Player1, 0}, {domain.Player2, 1},
		{domain.Player1, 0},
	}
	for _, m := range moves {
		_, err := g.MakeMove(m.player, m.col)
		require.NoError(t, err)
	}

	assert.Equal(t, domain.StatusWon, g.Status)
	assert.Equal(t, domain.Player1, g.Winner)
	assert.True(t, g.IsFinished())

	_, err := g.MakeMove(domain.Player2, 2)
	assert.ErrorIs(t, err, domain.ErrGameOver)
}

func TestInvalidMovesRejected(t *testing.T) {
	g := NewGame()
	_, err := g.MakeMove(domain.Player1, 9)
	assert.ErrorIs(t, err, domain.ErrInvalidMove)

	for i := 0; i < domain.Rows; i++ {
		player := domain.Player1
		if i%2 == 1 {
			player = domain.Player2
		}
		_, err := g.MakeMove(player, 6)
		require.NoError(t, err)
	}
	_, err = g.MakeMove(domain.Player1, 6)
	assert.ErrorIs(t, err, domain.ErrColumnFull)
}

func TestUndoMoveReopensGame(t *testing.T) {
	g := NewGame()
	moves := []int{0, 1, 0, 1, 0, 1, 0} // Player1 wins vertically
	for _, col := range moves {
		_, err := g.MakeMove(g.CurrentPlayer, col)
		require.NoError(t, err)
	}
	require.Equal(t, domain.StatusWon, g.Status)

	require.NoError(t, g.UndoMove())
	assert.Equal(t, domain.StatusActive, g.Status)
	assert.Equal(t, domain.Empty, g.Winner)
	assert.Equal(t, domain.Player1, g.CurrentPlayer)
	assert.Equal(t, 6, g.MoveCount())
}

func TestUndoEmptyGame(t *testing.T) {
	g := NewGame()
	assert.ErrorIs(t, g.UndoMove(), domain.ErrEmptyHistory)
}

func TestGridShape(t *testing.T) {
	g := NewGame()
	_, err := g.MakeMove(domain.Player1, 0)
	require.NoError(t, err)

	grid := g.Grid()
	require.Len(t, grid, domain.Rows)
	require.Len(t, grid[0], domain.Columns)
	assert.Equal(t, domain.Player1, grid[domain.Rows-1][0])
}
