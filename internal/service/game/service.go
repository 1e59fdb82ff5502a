// Package game enforces the rules of a single match on top of the engine's
// board: whose turn it is, when the game ends, and who won.
package game

import (
	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/engine"
)

type Game struct {
	Board         *engine.Board
	CurrentPlayer domain.PlayerID
	Status        domain.GameStatus
	Winner        domain.PlayerID
}

func NewGame() *Game {
	return &Game{
		Board:         engine.NewBoard(),
		CurrentPlayer: domain.Player1,
		Status:        domain.StatusActive,
		Winner:        domain.Empty,
	}
}

// MakeMove applies a move for the given player and returns the row the
// piece landed on. The move is rejected if the game is over or it is not
// the player's turn.
func (g *Game) MakeMove(player domain.PlayerID, column int) (int, error) {
	if g.Status != domain.StatusActive {
		return -1, domain.ErrGameOver
	}
	if player != g.CurrentPlayer {
		return -1, domain.ErrNotYourTurn
	}

	if err := g.Board.Apply(column); err != nil {
		return -1, err
	}
	row := 0
	for r := domain.Rows - 1; r >= 0; r-- {
		if g.Board.Cell(r, column) != domain.Empty {
			row = r
			break
		}
	}

	if g.Board.IsWin(player) {
		g.Status = domain.StatusWon
		g.Winner = player
		return row, nil
	}
	if g.Board.IsDraw() {
		g.Status = domain.StatusDraw
		return row, nil
	}

	g.CurrentPlayer = g.CurrentPlayer.Opponent()
	return row, nil
}

// UndoMove takes back the most recent move and reopens the game. It exists
// for local play; networked sessions never call it.
func (g *Game) UndoMove() error {
	if err := g.Board.Undo(); err != nil {
		return err
	}
	g.Status = domain.StatusActive
	g.Winner = domain.Empty
	g.CurrentPlayer = g.Board.SideToMove()
	return nil
}

func (g *Game) MoveCount() int {
	return g.Board.MoveCount()
}

func (g *Game) IsFinished() bool {
	return g.Status == domain.StatusWon || g.Status == domain.StatusDraw
}

// Grid returns the board rows for transport payloads, top row first.
func (g *Game) Grid() [][]domain.PlayerID {
	return g.Board.Grid()
}
