package presence

import (
	"sync"

	"messaging-service/internal/models"
)

// Conn is a live connection handle capable of receiving wire events.
// The websocket gateway provides the real implementation; tests substitute
// their own.
type Conn interface {
	ID() string
	WriteEvent(event models.WireEvent) error
}

// Registry maps user ids to their active live connection. It is the single
// authority on whether a user is reachable right now. At most one handle is
// kept per user: a new connection for the same user replaces the prior
// mapping. The replaced physical connection is not closed, it simply stops
// being reachable through the registry. Known limitation of the
// last-socket-wins design.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register stores conn as the active handle for userID, replacing any
// previous handle. Idempotent.
func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[userID] = conn
}

// Unregister removes the mapping only if conn is still the stored handle.
// This guards against a stale disconnect racing a newer connection's
// registration for the same user.
func (r *Registry) Unregister(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[userID]; ok && current.ID() == conn.ID() {
		delete(r.conns, userID)
	}
}

// Lookup returns the active handle for userID, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Online reports whether userID currently has an active handle.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}
