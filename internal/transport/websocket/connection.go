// Package websocket is the realtime transport for matchmaking and game
// play.
package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/akghosh/connect4/internal/domain"
)

// Connection pairs a socket with its write mutex. gorilla/websocket
// forbids concurrent writers.
type Connection struct {
	Username string
	Conn     *websocket.Conn
	writeMu  sync.Mutex
}

// ConnectionManager tracks live sockets by user id. It satisfies the
// session layer's Sender interface.
type ConnectionManager struct {
	mu          sync.RWMutex
	connections map[int64]*Connection
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[int64]*Connection),
	}
}

// Add registers a socket for a user, replacing any previous one. The
// replaced socket, if any, is returned so the caller can close it.
func (cm *ConnectionManager) Add(userID int64, username string, conn *websocket.Conn) *Connection {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	old := cm.connections[userID]
	cm.connections[userID] = &Connection{Username: username, Conn: conn}
	return old
}

// Remove drops the mapping only if it still points at conn. A user who
// reconnected from another device keeps the new socket.
func (cm *ConnectionManager) Remove(userID int64, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if current, ok := cm.connections[userID]; ok && current.Conn == conn {
		delete(cm.connections, userID)
	}
}

func (cm *ConnectionManager) Get(userID int64) (*Connection, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, ok := cm.connections[userID]
	return c, ok
}

// SendMessage marshals and writes a message to a user's socket.
func (cm *ConnectionManager) SendMessage(userID int64, msg domain.ServerMessage) error {
	cm.mu.RLock()
	c, ok := cm.connections[userID]
	cm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connection for user %d", userID)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// SendTo writes directly to a socket that may not be registered yet,
// used for errors before authentication.
func SendTo(conn *websocket.Conn, msg domain.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
