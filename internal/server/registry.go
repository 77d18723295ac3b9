package server

import (
	"fmt"
	"sync"
)

// Registry maps connection ids to live connections. It is the Broadcaster
// the dispatcher fans out through.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Add registers a connection under its id
func (r *Registry) Add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = conn
}

// Remove drops a connection by id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Send implements dispatch.Broadcaster
func (r *Registry) Send(connectionID string, v any) error {
	r.mu.RLock()
	conn, ok := r.conns[connectionID]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown connection %s", connectionID)
	}
	return conn.Send(v)
}

// Len returns the number of live connections
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll shuts every connection down, for server stop
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, conn := range r.conns {
		_ = conn.Close()
		delete(r.conns, id)
	}
}
