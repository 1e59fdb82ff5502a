package postgres

import (
	"database/sql"
	"fmt"

	"github.com/akghosh/connect4/internal/domain"
	"github.com/lib/pq"
)

// UserRepo reads and writes player accounts.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new player and returns its id.
func (r *UserRepo) Create(username, passwordHash string) (int64, error) {
	query := `
	INSERT INTO players (username, password_hash)
	VALUES ($1, $2)
	RETURNING id;
	`
	var userID int64
	err := r.db.QueryRow(query, username, passwordHash).Scan(&userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, domain.ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return userID, nil
}

// CreateWithGoogle inserts a player linked to a Google account. No
// password is stored for OAuth users.
func (r *UserRepo) CreateWithGoogle(username, googleID string) (int64, error) {
	query := `
	INSERT INTO players (username, google_id)
	VALUES ($1, $2)
	RETURNING id;
	`
	var userID int64
	err := r.db.QueryRow(query, username, googleID).Scan(&userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return 0, domain.ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return userID, nil
}

// GetByUsername returns domain.ErrUserNotFound when no row matches.
func (r *UserRepo) GetByUsername(username string) (*domain.Player, error) {
	query := `
	SELECT id, username, password_hash, google_id, games_played, games_won, created_at
	FROM players
	WHERE username = $1;
	`
	return r.scanOne(r.db.QueryRow(query, username))
}

func (r *UserRepo) GetByID(userID int64) (*domain.Player, error) {
	query := `
	SELECT id, username, password_hash, google_id, games_played, games_won, created_at
	FROM players
	WHERE id = $1;
	`
	return r.scanOne(r.db.QueryRow(query, userID))
}

func (r *UserRepo) GetByGoogleID(googleID string) (*domain.Player, error) {
	query := `
	SELECT id, username, password_hash, google_id, games_played, games_won, created_at
	FROM players
	WHERE google_id = $1;
	`
	return r.scanOne(r.db.QueryRow(query, googleID))
}

func (r *UserRepo) scanOne(row *sql.Row) (*domain.Player, error) {
	var p domain.Player
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.PasswordHash,
		&p.GoogleID,
		&p.GamesPlayed,
		&p.GamesWon,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &p, nil
}

// UpdateStats bumps games_played and, on a win, games_won.
func (r *UserRepo) UpdateStats(userID int64, won bool) error {
	query := `
	UPDATE players
	SET games_played = games_played + 1,
	    games_won = games_won + CASE WHEN $2 THEN 1 ELSE 0 END
	WHERE id = $1;
	`
	if _, err := r.db.Exec(query, userID, won); err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}
	return nil
}

// Leaderboard returns the top players ranked by wins, then win rate.
func (r *UserRepo) Leaderboard(limit int) ([]domain.LeaderboardEntry, error) {
	query := `
	SELECT username, games_played, games_won,
	       CASE WHEN games_played > 0
	            THEN ROUND(games_won::numeric / games_played, 4)
	            ELSE 0 END AS win_rate
	FROM players
	WHERE games_played > 0
	ORDER BY games_won DESC, win_rate DESC, username ASC
	LIMIT $1;
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.GamesPlayed, &e.GamesWon, &e.WinRate); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
