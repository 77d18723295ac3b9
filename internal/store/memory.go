package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/trump304/internal/snapshot"
)

// MemoryGames is an in-process GameStore. The clock is injected so tests
// can drive TTL expiry.
type MemoryGames struct {
	mu    sync.Mutex
	clock quartz.Clock
	games map[string]*memoryGame
}

type memoryGame struct {
	rec       snapshot.Record
	version   int64
	expiresAt time.Time
}

// NewMemoryGames creates an empty in-memory games store
func NewMemoryGames(clock quartz.Clock) *MemoryGames {
	return &MemoryGames{
		clock: clock,
		games: make(map[string]*memoryGame),
	}
}

// Get implements GameStore
func (m *MemoryGames) Get(_ context.Context, code string) (snapshot.Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.games[code]
	if !ok {
		return snapshot.Record{}, 0, ErrNotFound
	}
	if m.clock.Now().After(entry.expiresAt) {
		delete(m.games, code)
		return snapshot.Record{}, 0, ErrNotFound
	}
	return entry.rec, entry.version, nil
}

// Put implements GameStore with an optimistic version check
func (m *MemoryGames) Put(_ context.Context, rec snapshot.Record, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.games[rec.GameCode]
	if ok && m.clock.Now().After(entry.expiresAt) {
		delete(m.games, rec.GameCode)
		entry, ok = nil, false
	}

	if expectedVersion == 0 {
		if ok {
			return 0, ErrVersionConflict
		}
		m.games[rec.GameCode] = &memoryGame{rec: rec, version: 1, expiresAt: m.clock.Now().Add(TTL)}
		return 1, nil
	}

	if !ok {
		return 0, ErrNotFound
	}
	if entry.version != expectedVersion {
		return 0, ErrVersionConflict
	}
	entry.rec = rec
	entry.version++
	entry.expiresAt = m.clock.Now().Add(TTL)
	return entry.version, nil
}

// Delete implements GameStore
func (m *MemoryGames) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, code)
	return nil
}

// MemoryConns is an in-process ConnStore
type MemoryConns struct {
	mu    sync.Mutex
	conns map[string]Connection
}

// NewMemoryConns creates an empty in-memory connections store
func NewMemoryConns() *MemoryConns {
	return &MemoryConns{conns: make(map[string]Connection)}
}

// Put implements ConnStore
func (m *MemoryConns) Put(_ context.Context, conn Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[conn.ConnectionID] = conn
	return nil
}

// Get implements ConnStore
func (m *MemoryConns) Get(_ context.Context, connectionID string) (Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.conns[connectionID]
	if !ok {
		return Connection{}, ErrNotFound
	}
	return conn, nil
}

// Delete implements ConnStore
func (m *MemoryConns) Delete(_ context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, connectionID)
	return nil
}

// ByGame implements ConnStore
func (m *MemoryConns) ByGame(_ context.Context, gameCode string) ([]Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var conns []Connection
	for _, c := range m.conns {
		if c.GameCode == gameCode {
			conns = append(conns, c)
		}
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].Seat < conns[j].Seat })
	return conns, nil
}
