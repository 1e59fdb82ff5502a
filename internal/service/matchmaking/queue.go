// Package matchmaking pairs waiting players, falling back to a bot match
// when nobody shows up before the timeout.
package matchmaking

import (
	"sync"
	"time"

	"github.com/akghosh/connect4/internal/service/bot"
)

type Match struct {
	Player1ID       int64
	Player1Username string
	Player2ID       *int64 // nil for a bot opponent
	Player2Username string
	BotDifficulty   bot.Difficulty
}

type waiting struct {
	username   string
	difficulty bot.Difficulty
}

type Queue struct {
	mu         sync.Mutex
	players    map[int64]waiting
	timers     map[int64]*time.Timer
	matches    chan Match
	botTimeout time.Duration
}

func NewQueue(botTimeout time.Duration) *Queue {
	if botTimeout <= 0 {
		botTimeout = 10 * time.Second
	}
	return &Queue{
		players:    make(map[int64]waiting),
		timers:     make(map[int64]*time.Timer),
		matches:    make(chan Match, 100),
		botTimeout: botTimeout,
	}
}

// Add puts a player in the queue. If another player is already waiting the
// two are matched immediately; otherwise a timer starts that will match the
// player against a bot at the requested difficulty.
func (q *Queue) Add(userID int64, username string, difficulty bot.Difficulty) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.players[userID]; exists {
		return
	}

	if len(q.players) == 0 {
		q.players[userID] = waiting{username: username, difficulty: difficulty}
		q.timers[userID] = time.AfterFunc(q.botTimeout, func() {
			q.handleTimeout(userID)
		})
		return
	}

	// match with the first waiting player
	var opponentID int64
	var opponent waiting
	for id, w := range q.players {
		opponentID = id
		opponent = w
		break
	}
	delete(q.players, opponentID)
	q.stopTimer(opponentID)

	q.matches <- Match{
		Player1ID:       opponentID,
		Player1Username: opponent.username,
		Player2ID:       &userID,
		Player2Username: username,
	}
}

func (q *Queue) handleTimeout(userID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	w, exists := q.players[userID]
	if !exists {
		return
	}
	delete(q.players, userID)
	q.stopTimer(userID)

	q.matches <- Match{
		Player1ID:       userID,
		Player1Username: w.username,
		Player2ID:       nil,
		Player2Username: w.difficulty.BotName(),
		BotDifficulty:   w.difficulty,
	}
}

// Matches is the channel the session layer consumes pairings from.
func (q *Queue) Matches() <-chan Match {
	return q.matches
}

func (q *Queue) Remove(userID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.players, userID)
	q.stopTimer(userID)
}

func (q *Queue) Waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.players)
}

func (q *Queue) stopTimer(userID int64) {
	if timer := q.timers[userID]; timer != nil {
		timer.Stop()
	}
	delete(q.timers, userID)
}
