// Package bot maps difficulty labels onto search depths and picks moves for
// the AI opponent. The engine itself only ever sees an integer depth.
package bot

import (
	"github.com/rs/zerolog/log"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/akghosh/connect4/internal/engine"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
	DifficultyInsane Difficulty = "insane"
)

// ParseDifficulty validates and returns the bot difficulty.
// Defaults to Medium if invalid or empty.
func ParseDifficulty(difficulty string) Difficulty {
	switch difficulty {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	case "expert":
		return DifficultyExpert
	case "insane":
		return DifficultyInsane
	default:
		return DifficultyMedium
	}
}

// Depth returns the search depth for this difficulty tier.
func (d Difficulty) Depth() int {
	switch d {
	case DifficultyEasy:
		return 2
	case DifficultyMedium:
		return 4
	case DifficultyHard:
		return 6
	case DifficultyExpert:
		return 8
	case DifficultyInsane:
		return 10
	default:
		return 4
	}
}

// BotName returns the display name shown to players for this tier.
func (d Difficulty) BotName() string {
	return domain.GetBotName(string(d))
}

// Service chooses bot moves using the shared search engine.
type Service struct {
	engine *engine.Engine
}

func NewService(e *engine.Engine) *Service {
	if e == nil {
		e = engine.New()
	}
	return &Service{engine: e}
}

// ChooseMove returns the column the bot plays on the given board, searching
// at the difficulty's depth. Returns engine.NoMove if the board is already
// terminal; callers should not ask for a move in that case.
func (s *Service) ChooseMove(b *engine.Board, difficulty Difficulty) int {
	if b.IsTerminal() {
		return engine.NoMove
	}
	res := s.engine.BestMove(b, difficulty.Depth())
	log.Debug().
		Str("difficulty", string(difficulty)).
		Int("column", res.Column).
		Int("score", res.Score).
		Msg("bot move chosen")
	return res.Column
}
