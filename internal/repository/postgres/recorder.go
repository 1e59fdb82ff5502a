package postgres

// Recorder adapts the repos to what the session layer needs when a
// game finishes.
type Recorder struct {
	users *UserRepo
	games *GameRepo
}

func NewRecorder(users *UserRepo, games *GameRepo) *Recorder {
	return &Recorder{users: users, games: games}
}

func (r *Recorder) SaveGame(gameID, winner, reason string, moveCount int, player1 int64, player2 *int64) error {
	return r.games.Save(gameID, winner, reason, moveCount, player1, player2)
}

func (r *Recorder) UpdatePlayerStats(userID int64, won bool) error {
	return r.users.UpdateStats(userID, won)
}
