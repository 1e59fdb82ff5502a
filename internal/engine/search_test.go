package engine

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/akghosh/connect4/internal/domain"
)

// naiveBestMove is an unpruned reference minimax with the same move order
// and tie-break as the engine.
func naiveBestMove(b *Board, depth int) Result {
	maximizer := b.SideToMove()
	bestCol := NoMove
	bestScore := math.MinInt32
	for _, col := range orderedMoves(b) {
		_ = b.Apply(col)
		score := naiveMinimax(b, maximizer, depth-1, 1, false)
		_ = b.Undo()
		if bestCol == NoMove || score > bestScore {
			bestScore = score
			bestCol = col
		}
	}
	return Result{Column: bestCol, Score: bestScore}
}

func naiveMinimax(b *Board, maximizer domain.PlayerID, depth, ply int, maximizing bool) int {
	if b.IsWin(maximizer) {
		return WinScore - ply
	}
	if b.IsWin(maximizer.Opponent()) {
		return ply - WinScore
	}
	if b.MoveCount() == domain.Rows*domain.Columns {
		return 0
	}
	if depth == 0 {
		return Evaluate(b, maximizer)
	}

	if maximizing {
		best := math.MinInt32
		for _, col := range orderedMoves(b) {
			_ = b.Apply(col)
			score := naiveMinimax(b, maximizer, depth-1, ply+1, false)
			_ = b.Undo()
			if score > best {
				best = score
			}
		}
		return best
	}
	best := math.MaxInt32
	for _, col := range orderedMoves(b) {
		_ = b.Apply(col)
		score := naiveMinimax(b, maximizer, depth-1, ply+1, true)
		_ = b.Undo()
		if score < best {
			best = score
		}
	}
	return best
}

func TestOpeningPrefersCenter(t *testing.T) {
	is := is.New(t)
	b := NewBoard()
	res := New().BestMove(b, 4)
	is.Equal(res.Column, 3)
	is.Equal(b.MoveCount(), 0) // search left the board untouched
}

func TestTakesImmediateWin(t *testing.T) {
	is := is.New(t)
	// Player1 to move with three in a row on the bottom at columns 0-2
	b := testBoard(t,
		[][2]int{{0, 0}, {0, 1}, {0, 2}},
		[][2]int{{0, 5}, {0, 6}, {1, 6}})
	is.Equal(b.SideToMove(), domain.Player1)

	for _, depth := range []int{2, 4, 6} {
		res := New().BestMove(b, depth)
		is.Equal(res.Column, 3)
		is.Equal(res.Score, WinScore-1) // win one ply from the root
	}
}

func TestBlocksImmediateThreat(t *testing.T) {
	is := is.New(t)
	// Player2 threatens columns 3-6 on the bottom row; Player1 must block
	// at column 3 or lose on the next ply
	b := testBoard(t,
		[][2]int{{0, 0}, {1, 0}, {0, 1}},
		[][2]int{{0, 4}, {0, 5}, {0, 6}})
	is.Equal(b.SideToMove(), domain.Player1)

	for _, depth := range []int{2, 4, 6} {
		res := New().BestMove(b, depth)
		is.Equal(res.Column, 3)
	}
}

func TestSearchDeterministic(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 20; trial++ {
		b := randomPlayout(rng, rng.Intn(30))
		if b.IsTerminal() {
			continue
		}
		first := New().BestMove(b, 4)
		second := New().BestMove(b, 4)
		is.Equal(first, second)
	}
}

func TestPruningMatchesPlainMinimax(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewSource(31337))
	for trial := 0; trial < 15; trial++ {
		b := randomPlayout(rng, rng.Intn(36))
		if b.IsTerminal() {
			continue
		}
		for depth := 1; depth <= 4; depth++ {
			pruned := New().BestMove(b, depth)
			plain := naiveBestMove(b, depth)
			is.Equal(pruned, plain)
		}
	}
}

func TestTerminalRoot(t *testing.T) {
	is := is.New(t)

	// Player1 already won; the side to move is the loser
	won := testBoard(t,
		[][2]int{{0, 0}, {0, 1}, {0, 2}, {0, 3}},
		[][2]int{{0, 4}, {0, 5}, {0, 6}})
	res := New().BestMove(won, 6)
	is.Equal(res.Column, NoMove)
	is.Equal(res.Score, -WinScore)

	// full board with no connect-four scores zero
	var p1, p2 [][2]int
	for row := 0; row < domain.Rows; row++ {
		for col := 0; col < domain.Columns; col++ {
			if (col+row/2)%2 == 0 {
				p1 = append(p1, [2]int{row, col})
			} else {
				p2 = append(p2, [2]int{row, col})
			}
		}
	}
	drawn := testBoard(t, p1, p2)
	res = New().BestMove(drawn, 6)
	is.Equal(res.Column, NoMove)
	is.Equal(res.Score, 0)
}

func TestNodeBudget(t *testing.T) {
	is := is.New(t)
	b := NewBoard()
	e := NewWithOptions(Options{MaxNodes: 50})
	res := e.BestMove(b, 10)
	is.True(res.Column >= 0 && res.Column < domain.Columns)
	is.Equal(b.MoveCount(), 0)
}

func TestTimeBudget(t *testing.T) {
	is := is.New(t)
	b := NewBoard()
	e := NewWithOptions(Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	res := e.BestMove(b, 12)
	elapsed := time.Since(start)

	is.True(res.Column >= 0 && res.Column < domain.Columns)
	is.True(elapsed < 5*time.Second)
}

// playGame pits two engines against each other from an empty board and
// returns the winner's side, or Empty on a draw. first moves as Player1.
func playGame(t *testing.T, first, second *Engine, firstDepth, secondDepth int) domain.PlayerID {
	t.Helper()
	b := NewBoard()
	for !b.IsTerminal() {
		var res Result
		if b.SideToMove() == domain.Player1 {
			res = first.BestMove(b, firstDepth)
		} else {
			res = second.BestMove(b, secondDepth)
		}
		if err := b.Apply(res.Column); err != nil {
			t.Fatalf("engine chose an illegal move %d: %v", res.Column, err)
		}
	}
	if b.IsWin(domain.Player1) {
		return domain.Player1
	}
	if b.IsWin(domain.Player2) {
		return domain.Player2
	}
	return domain.Empty
}

func TestDeeperSearchDoesNotLoseToShallower(t *testing.T) {
	if testing.Short() {
		t.Skip("self-play series")
	}
	is := is.New(t)
	deep, shallow := New(), New()

	deepWins, shallowWins := 0, 0

	// deeper engine moving first
	switch playGame(t, deep, shallow, 4, 2) {
	case domain.Player1:
		deepWins++
	case domain.Player2:
		shallowWins++
	}
	// deeper engine moving second
	switch playGame(t, shallow, deep, 2, 4) {
	case domain.Player1:
		shallowWins++
	case domain.Player2:
		deepWins++
	}

	is.True(deepWins >= shallowWins)
}
