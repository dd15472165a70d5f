package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/models"
)

// Conn wraps a websocket connection as a presence handle. Writes are
// serialized with a mutex; gorilla allows at most one concurrent writer.
type Conn struct {
	id   string
	sock *websocket.Conn
	mu   sync.Mutex
}

func newConn(id string, sock *websocket.Conn) *Conn {
	return &Conn{id: id, sock: sock}
}

// ID returns the unique id of this physical connection.
func (c *Conn) ID() string {
	return c.id
}

// WriteEvent pushes a wire event to the client.
func (c *Conn) WriteEvent(event models.WireEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(event)
}

// ConnInfo carries identity and correlation data for lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
