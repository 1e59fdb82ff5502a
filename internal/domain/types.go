package domain

// to represent the players in the game
type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// Opponent returns the other player. Empty maps to Empty.
func (p PlayerID) Opponent() PlayerID {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return Empty
}

// for board representation
const (
	Rows    = 6
	Columns = 7
	ToWin   = 4
)

// to represent the game status
type GameStatus string

const (
	StatusActive GameStatus = "active"
	StatusWon    GameStatus = "won"
	StatusDraw   GameStatus = "draw"
)

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidMove  Error = "invalid move"
	ErrColumnFull   Error = "column is full"
	ErrEmptyHistory Error = "no moves to undo"
	ErrGameOver     Error = "game is already over"
	ErrNotYourTurn  Error = "not your turn"

	ErrUserNotFound  Error = "user not found"
	ErrUsernameTaken Error = "username already taken"
)

var BotNames = map[string]string{
	"easy":   "Alice",
	"medium": "Bob",
	"hard":   "Charles",
	"expert": "Diana",
	"insane": "Ivan",
}

const BotUsername = "BOT"

func GetBotName(difficulty string) string {
	if name, ok := BotNames[difficulty]; ok {
		return name
	}
	return BotUsername
}

func IsBotName(username string) bool {
	if username == BotUsername {
		return true
	}
	for _, name := range BotNames {
		if username == name {
			return true
		}
	}
	return false
}
