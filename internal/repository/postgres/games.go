package postgres

import (
	"database/sql"
	"fmt"

	"github.com/akghosh/connect4/internal/domain"
)

// GameRepo archives finished games.
type GameRepo struct {
	db *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Save records a finished game. player2 is nil for bot games.
func (r *GameRepo) Save(gameID, winner, reason string, moveCount int, player1 int64, player2 *int64) error {
	query := `
	INSERT INTO games (game_id, player1_id, player2_id, winner, reason, move_count)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (game_id) DO NOTHING;
	`
	var p2 sql.NullInt64
	if player2 != nil {
		p2 = sql.NullInt64{Int64: *player2, Valid: true}
	}
	if _, err := r.db.Exec(query, gameID, player1, p2, winner, reason, moveCount); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

// History returns the most recent games a player took part in.
func (r *GameRepo) History(userID int64, limit int) ([]domain.GameRecord, error) {
	query := `
	SELECT id, game_id, player1_id, player2_id, winner, reason, move_count, finished_at
	FROM games
	WHERE player1_id = $1 OR player2_id = $1
	ORDER BY finished_at DESC
	LIMIT $2;
	`
	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get game history: %w", err)
	}
	defer rows.Close()

	var records []domain.GameRecord
	for rows.Next() {
		var rec domain.GameRecord
		var p2 sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.GameID, &rec.Player1ID, &p2,
			&rec.Winner, &rec.Reason, &rec.MoveCount, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		if p2.Valid {
			v := p2.Int64
			rec.Player2ID = &v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
