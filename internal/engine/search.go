package engine

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akghosh/connect4/internal/domain"
)

// NoMove is the column returned when the root position is already terminal.
const NoMove = -1

// columnOrder is the center-first move ordering. Center columns take part
// in more four-in-a-row lines, so searching them first produces earlier
// alpha-beta cutoffs.
var columnOrder = [domain.Columns]int{3, 2, 4, 1, 5, 0, 6}

// Options bounds a single search invocation. Zero values mean unbounded.
// When a budget runs out the searcher stops expanding and the root returns
// the best fully searched move so far.
type Options struct {
	MaxNodes int64
	Timeout  time.Duration
}

// Result pairs the chosen column with its score from the perspective of
// the player the search was run for.
type Result struct {
	Column int
	Score  int
}

// Engine is a fixed-depth minimax searcher with alpha-beta pruning. It keeps
// no state between calls; a single Engine may be shared, but every BestMove
// call owns its board for the duration of the call.
type Engine struct {
	opts Options
}

func New() *Engine {
	return &Engine{}
}

func NewWithOptions(opts Options) *Engine {
	return &Engine{opts: opts}
}

// BestMove searches the position to the given depth for the side to move
// and returns the best column with its score. The board is mutated during
// the search but every Apply is paired with an Undo, so it is returned in
// the exact state it came in.
//
// Callers should check IsTerminal first; on an already-terminal board the
// result carries NoMove and the terminal score.
func (e *Engine) BestMove(b *Board, depth int) Result {
	start := time.Now()
	s := &searcher{
		board:     b,
		maximizer: b.SideToMove(),
		maxNodes:  e.opts.MaxNodes,
	}
	if e.opts.Timeout > 0 {
		s.deadline = start.Add(e.opts.Timeout)
	}

	if b.IsTerminal() {
		return Result{Column: NoMove, Score: s.terminalScore(0)}
	}

	bestCol := NoMove
	bestScore := math.MinInt32
	alpha, beta := math.MinInt32, math.MaxInt32
	for _, col := range orderedMoves(b) {
		_ = b.Apply(col)
		score := s.minimax(depth-1, 1, alpha, beta, false)
		_ = b.Undo()
		if s.stopped && bestCol != NoMove {
			// partially searched subtree, its score is not trustworthy
			break
		}
		if bestCol == NoMove || score > bestScore {
			bestScore = score
			bestCol = col
		}
		if score > alpha {
			alpha = score
		}
	}

	log.Debug().
		Int("depth", depth).
		Int64("nodes", s.nodes).
		Dur("elapsed", time.Since(start)).
		Int("column", bestCol).
		Int("score", bestScore).
		Msg("search finished")

	return Result{Column: bestCol, Score: bestScore}
}

type searcher struct {
	board     *Board
	maximizer domain.PlayerID
	nodes     int64
	maxNodes  int64
	deadline  time.Time
	stopped   bool
}

func (s *searcher) outOfBudget() bool {
	if s.stopped {
		return true
	}
	if s.maxNodes > 0 && s.nodes >= s.maxNodes {
		s.stopped = true
	}
	if !s.deadline.IsZero() && s.nodes%1024 == 0 && time.Now().After(s.deadline) {
		s.stopped = true
	}
	return s.stopped
}

// terminalScore shapes terminal results by distance from the root so the
// searcher prefers quicker wins and later losses.
func (s *searcher) terminalScore(ply int) int {
	if s.board.IsWin(s.maximizer) {
		return WinScore - ply
	}
	if s.board.IsWin(s.maximizer.Opponent()) {
		return ply - WinScore
	}
	return 0 // draw
}

func (s *searcher) minimax(depth, ply, alpha, beta int, maximizing bool) int {
	s.nodes++
	b := s.board

	if b.IsWin(s.maximizer) || b.IsWin(s.maximizer.Opponent()) {
		return s.terminalScore(ply)
	}
	if b.MoveCount() == domain.Rows*domain.Columns {
		return 0
	}
	if depth == 0 || s.outOfBudget() {
		return Evaluate(b, s.maximizer)
	}

	if maximizing {
		best := math.MinInt32
		for _, col := range orderedMoves(b) {
			_ = b.Apply(col)
			score := s.minimax(depth-1, ply+1, alpha, beta, false)
			_ = b.Undo()
			if score > best {
				best = score
			}
			if score > alpha {
				alpha = score
			}
			if alpha >= beta {
				break // beta cutoff
			}
		}
		return best
	}

	best := math.MaxInt32
	for _, col := range orderedMoves(b) {
		_ = b.Apply(col)
		score := s.minimax(depth-1, ply+1, alpha, beta, true)
		_ = b.Undo()
		if score < best {
			best = score
		}
		if score < beta {
			beta = score
		}
		if alpha >= beta {
			break // alpha cutoff
		}
	}
	return best
}

func orderedMoves(b *Board) []int {
	moves := make([]int, 0, domain.Columns)
	for _, col := range columnOrder {
		if b.heights[col] < domain.Rows {
			moves = append(moves, col)
		}
	}
	return moves
}
