package domain

// ClientMessage is what the frontend sends over the websocket.
type ClientMessage struct {
	Type       string `json:"type"`
	JWT        string `json:"jwt,omitempty"`
	Column     int    `json:"column,omitempty"`
	GameID     string `json:"game_id,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// ServerMessage is what the backend pushes to clients.
type ServerMessage struct {
	Type        string       `json:"type"`
	Message     string       `json:"message,omitempty"`
	GameID      string       `json:"game_id,omitempty"`
	Opponent    string       `json:"opponent,omitempty"`
	YourPlayer  int          `json:"your_player,omitempty"`
	CurrentTurn int          `json:"current_turn,omitempty"`
	Column      int          `json:"column,omitempty"`
	Row         int          `json:"row,omitempty"`
	Player      int          `json:"player,omitempty"`
	NextTurn    int          `json:"next_turn,omitempty"`
	Winner      string       `json:"winner,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	Board       [][]PlayerID `json:"board,omitempty"`
}
