package engine

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/matryer/is"

	"github.com/akghosh/connect4/internal/domain"
)

func TestWindowMasks(t *testing.T) {
	is := is.New(t)
	// 24 horizontal + 21 vertical + 12 per diagonal
	is.Equal(len(windowMasks), 69)
	for _, m := range windowMasks {
		is.Equal(bits.OnesCount64(m), domain.ToWin)
	}
}

func TestEvaluateEmptyBoard(t *testing.T) {
	is := is.New(t)
	is.Equal(Evaluate(NewBoard(), domain.Player1), 0)
	is.Equal(Evaluate(NewBoard(), domain.Player2), 0)
}

func TestEvaluateAntisymmetric(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 100; trial++ {
		b := randomPlayout(rng, rng.Intn(43))
		is.Equal(Evaluate(b, domain.Player1), -Evaluate(b, domain.Player2))
	}
}

func TestEvaluatePrefersCenter(t *testing.T) {
	is := is.New(t)

	center := NewBoard()
	is.NoErr(center.Apply(3))
	edge := NewBoard()
	is.NoErr(edge.Apply(0))

	is.True(Evaluate(center, domain.Player1) > Evaluate(edge, domain.Player1))
}

func TestEvaluateThreeInARow(t *testing.T) {
	is := is.New(t)
	b := testBoard(t,
		[][2]int{{0, 0}, {0, 1}, {0, 2}},
		[][2]int{{0, 5}, {0, 6}, {1, 6}})
	// the open window at columns 0-3 is worth the full three-in-a-row bonus
	is.True(Evaluate(b, domain.Player1) > scoreThree/2)
	is.True(Evaluate(b, domain.Player2) < 0)
}

func TestEvaluateCompletedFour(t *testing.T) {
	is := is.New(t)
	b := testBoard(t,
		[][2]int{{0, 0}, {0, 1}, {0, 2}, {0, 3}},
		[][2]int{{0, 4}, {0, 5}, {0, 6}})
	is.True(Evaluate(b, domain.Player1) >= scoreFour)
}

func TestWindowScoreChain(t *testing.T) {
	is := is.New(t)
	is.Equal(windowScore(4, 0), scoreFour)
	is.Equal(windowScore(3, 0), scoreThree)
	is.Equal(windowScore(2, 0), scoreTwo)
	is.Equal(windowScore(1, 0), scoreOne)
	is.Equal(windowScore(0, 3), scoreOppThree)
	is.Equal(windowScore(0, 2), scoreOppTwo)
	// mixed windows are dead and score nothing
	is.Equal(windowScore(2, 1), 0)
	is.Equal(windowScore(1, 3), 0)
	is.Equal(windowScore(3, 1), 0)
	is.Equal(windowScore(0, 4), 0)
	is.Equal(windowScore(0, 0), 0)
}
