package domain

import "time"

// Player is a registered account.
type Player struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GoogleID     *string   `json:"-"`
	GamesPlayed  int       `json:"games_played"`
	GamesWon     int       `json:"games_won"`
	CreatedAt    time.Time `json:"created_at"`
}

// GameRecord is a finished game as stored in the database. Player2 is
// nil for games against a bot.
type GameRecord struct {
	ID         int64     `json:"id"`
	GameID     string    `json:"game_id"`
	Player1ID  int64     `json:"player1_id"`
	Player2ID  *int64    `json:"player2_id,omitempty"`
	Winner     string    `json:"winner"`
	Reason     string    `json:"reason"`
	MoveCount  int       `json:"move_count"`
	FinishedAt time.Time `json:"finished_at"`
}

// LeaderboardEntry is one row of the win-ranked player listing.
type LeaderboardEntry struct {
	Username    string  `json:"username"`
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	WinRate     float64 `json:"win_rate"`
}
