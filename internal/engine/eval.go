package engine

import (
	"math/bits"

	"github.com/akghosh/connect4/internal/domain"
)

// WinScore is the terminal score for a connect-four, before ply shaping.
const WinScore = 100000

// Window weights. A window is any run of four contiguous cells along a
// winning direction.
const (
	scoreFour     = WinScore // should not occur at non-terminal nodes
	scoreThree    = 1000     // three own pieces, one empty
	scoreTwo      = 100      // two own pieces, two empty
	scoreOne      = 10       // one own piece, three empty
	scoreOppThree = -800     // opponent about to win, bias toward blocking
	scoreOppTwo   = -50
)

// positionalWeights favors center cells; row 0 is the bottom row.
var positionalWeights = [domain.Rows][domain.Columns]int{
	{3, 4, 5, 7, 5, 4, 3},
	{4, 6, 8, 10, 8, 6, 4},
	{5, 8, 11, 13, 11, 8, 5},
	{5, 8, 11, 13, 11, 8, 5},
	{4, 6, 8, 10, 8, 6, 4},
	{3, 4, 5, 7, 5, 4, 3},
}

// columnWeights heavily favors the center column.
var columnWeights = [domain.Columns]int{40, 70, 120, 200, 120, 70, 40}

// windowMasks holds one bitmask per four-cell window: 24 horizontal,
// 21 vertical and 12 along each diagonal, 69 in total.
var windowMasks = buildWindowMasks()

func buildWindowMasks() []uint64 {
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}} // {dRow, dCol}
	masks := make([]uint64, 0, 69)
	for row := 0; row < domain.Rows; row++ {
		for col := 0; col < domain.Columns; col++ {
			for _, d := range dirs {
				endRow := row + (domain.ToWin-1)*d[0]
				endCol := col + (domain.ToWin-1)*d[1]
				if endRow < 0 || endRow >= domain.Rows || endCol < 0 || endCol >= domain.Columns {
					continue
				}
				var m uint64
				for i := 0; i < domain.ToWin; i++ {
					m |= 1 << bitIndex(row+i*d[0], col+i*d[1])
				}
				masks = append(masks, m)
			}
		}
	}
	return masks
}

// Evaluate scores the position from pov's perspective: positive is good for
// pov. Both sides are scored independently and subtracted, so an opponent
// threat costs twice — once as their gain and once as our block penalty.
func Evaluate(b *Board, pov domain.PlayerID) int {
	return sideScore(b, pov) - sideScore(b, pov.Opponent())
}

func sideScore(b *Board, p domain.PlayerID) int {
	own := b.sides[p-1]
	theirs := b.sides[p.Opponent()-1]

	score := 0
	for _, w := range windowMasks {
		score += windowScore(bits.OnesCount64(own&w), bits.OnesCount64(theirs&w))
	}

	// positional bonus per occupied cell, independent of window membership
	for bb := own; bb != 0; bb &= bb - 1 {
		idx := bits.TrailingZeros64(bb)
		row, col := idx%colStride, idx/colStride
		score += positionalWeights[row][col] + columnWeights[col]
	}
	return score
}

func windowScore(count, block int) int {
	empty := domain.ToWin - count - block
	switch {
	case count == 4:
		return scoreFour
	case count == 3 && empty == 1:
		return scoreThree
	case count == 2 && empty == 2:
		return scoreTwo
	case count == 1 && empty == 3:
		return scoreOne
	case block == 3 && empty == 1:
		return scoreOppThree
	case block == 2 && empty == 2:
		return scoreOppTwo
	}
	return 0
}
