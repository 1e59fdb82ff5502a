package engine

import (
	"math/bits"
	"strings"

	"github.com/akghosh/connect4/internal/domain"
)

// Each player's pieces live in one uint64 bitboard. The layout is
// column-major with seven bits per column: six playable rows plus a guard
// bit that is never set. The guard bit keeps shifted patterns from leaking
// into the neighbouring column during the win check.
//
//	 6 13 20 27 34 41 48   <- guard bits
//	---------------------
//	 5 12 19 26 33 40 47
//	 4 11 18 25 32 39 46
//	 3 10 17 24 31 38 45
//	 2  9 16 23 30 37 44
//	 1  8 15 22 29 36 43
//	 0  7 14 21 28 35 42   <- bottom row
const colStride = 7

func bitIndex(row, col int) uint {
	return uint(col*colStride + row)
}

// Board is the canonical Connect-4 game state. It is not safe for
// concurrent use; every Board belongs to exactly one caller.
type Board struct {
	sides   [2]uint64 // bitboards indexed by PlayerID-1
	heights [domain.Columns]int
	history []int // columns in play order, drives Undo
}

func NewBoard() *Board {
	return &Board{
		history: make([]int, 0, domain.Rows*domain.Columns),
	}
}

// MoveCount returns the number of pieces on the board.
func (b *Board) MoveCount() int {
	return bits.OnesCount64(b.sides[0]) + bits.OnesCount64(b.sides[1])
}

// SideToMove is derived from piece-count parity: Player1 always moves first.
func (b *Board) SideToMove() domain.PlayerID {
	if b.MoveCount()%2 == 0 {
		return domain.Player1
	}
	return domain.Player2
}

// LegalMoves returns the playable columns in ascending order. The slice is
// recomputed on every call and reflects the current state only.
func (b *Board) LegalMoves() []int {
	moves := make([]int, 0, domain.Columns)
	for col := 0; col < domain.Columns; col++ {
		if b.heights[col] < domain.Rows {
			moves = append(moves, col)
		}
	}
	return moves
}

// Apply drops a piece for the side to move into the given column.
// It returns ErrInvalidMove for an out-of-range column and ErrColumnFull
// for a full one; both are caller bugs, not game-over conditions.
func (b *Board) Apply(col int) error {
	if col < 0 || col >= domain.Columns {
		return domain.ErrInvalidMove
	}
	if b.heights[col] >= domain.Rows {
		return domain.ErrColumnFull
	}
	mover := b.SideToMove()
	b.sides[mover-1] |= 1 << bitIndex(b.heights[col], col)
	b.heights[col]++
	b.history = append(b.history, col)
	return nil
}

// Undo reverses the most recent move exactly: pop the bit, decrement the
// height, and the side to move flips back by parity.
func (b *Board) Undo() error {
	if len(b.history) == 0 {
		return domain.ErrEmptyHistory
	}
	last := len(b.history) - 1
	col := b.history[last]
	b.history = b.history[:last]

	// The piece being removed belongs to the player who moved last,
	// i.e. the opponent of the current side to move.
	mover := b.SideToMove().Opponent()
	b.heights[col]--
	b.sides[mover-1] &^= 1 << bitIndex(b.heights[col], col)
	return nil
}

// IsWin reports whether the player has four in a row in any direction.
// It intersects the player's bitboard with itself shifted 1, 2 and 3 steps
// along each direction stride, so the check is a handful of word ops
// rather than a cell scan.
func (b *Board) IsWin(p domain.PlayerID) bool {
	if p != domain.Player1 && p != domain.Player2 {
		return false
	}
	return hasFourInARow(b.sides[p-1])
}

func hasFourInARow(bb uint64) bool {
	// strides: 1 vertical, 7 horizontal, 6 and 8 for the two diagonals
	for _, shift := range [4]uint{1, colStride - 1, colStride, colStride + 1} {
		m := bb & (bb >> shift)
		m &= bb >> (2 * shift)
		m &= bb >> (3 * shift)
		if m != 0 {
			return true
		}
	}
	return false
}

// IsDraw is true iff all 42 cells are filled and neither player has won.
func (b *Board) IsDraw() bool {
	return b.MoveCount() == domain.Rows*domain.Columns &&
		!b.IsWin(domain.Player1) && !b.IsWin(domain.Player2)
}

// IsTerminal is true for a win by either player or a draw.
func (b *Board) IsTerminal() bool {
	return b.IsWin(domain.Player1) || b.IsWin(domain.Player2) ||
		b.MoveCount() == domain.Rows*domain.Columns
}

// Cell reports the owner of the given cell. Row 0 is the bottom row.
func (b *Board) Cell(row, col int) domain.PlayerID {
	if row < 0 || row >= domain.Rows || col < 0 || col >= domain.Columns {
		return domain.Empty
	}
	mask := uint64(1) << bitIndex(row, col)
	if b.sides[0]&mask != 0 {
		return domain.Player1
	}
	if b.sides[1]&mask != 0 {
		return domain.Player2
	}
	return domain.Empty
}

// Grid returns the board as rows for transport payloads. Row 0 is the top
// row, matching what the frontend renders.
func (b *Board) Grid() [][]domain.PlayerID {
	grid := make([][]domain.PlayerID, domain.Rows)
	for r := 0; r < domain.Rows; r++ {
		grid[r] = make([]domain.PlayerID, domain.Columns)
		for c := 0; c < domain.Columns; c++ {
			grid[r][c] = b.Cell(domain.Rows-1-r, c)
		}
	}
	return grid
}

// Clone returns a deep copy sharing no state with the receiver.
func (b *Board) Clone() *Board {
	nb := &Board{
		sides:   b.sides,
		heights: b.heights,
		history: make([]int, len(b.history), cap(b.history)),
	}
	copy(nb.history, b.history)
	return nb
}

// String renders the grid top row first, X for Player1 and O for Player2.
func (b *Board) String() string {
	var sb strings.Builder
	for row := domain.Rows - 1; row >= 0; row-- {
		for col := 0; col < domain.Columns; col++ {
			switch b.Cell(row, col) {
			case domain.Player1:
				sb.WriteString("X ")
			case domain.Player2:
				sb.WriteString("O ")
			default:
				sb.WriteString(". ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("0 1 2 3 4 5 6")
	return sb.String()
}
