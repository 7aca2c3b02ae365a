// Package history provides LocationSource implementations: an in-process
// memory history for tests and server-side sessions, and a WebSocket
// bridge that mirrors a browser's history across a live connection.
package history

import (
	"sync"

	"github.com/wayfind-dev/wayfind/pkg/location"
)

// Memory is an in-process history: a stack of entries plus a cursor,
// with the usual push/back/forward semantics. Pushing while not at the
// top truncates the forward entries, the way browser history does.
//
// Back and Forward notify subscribers; Push does not, since the router
// itself originates pushes.
type Memory struct {
	mu      sync.Mutex
	entries []location.Location
	index   int
	subs    map[int]func(location.Location)
	nextID  int
}

// NewMemory creates a memory history positioned at the initial location.
func NewMemory(initial string) *Memory {
	return &Memory{
		entries: []location.Location{location.Parse(initial)},
		subs:    map[int]func(location.Location){},
	}
}

// Read returns the entry at the cursor.
func (m *Memory) Read() location.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Push appends a new entry, discarding any forward entries.
func (m *Memory) Push(loc location.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], loc)
	m.index = len(m.entries) - 1
}

// Subscribe registers a callback for cursor moves (Back/Forward). The
// returned function removes the subscription.
func (m *Memory) Subscribe(onChange func(location.Location)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = onChange
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Back moves the cursor one entry back. Returns false at the oldest
// entry.
func (m *Memory) Back() bool {
	return m.move(-1)
}

// Forward moves the cursor one entry forward. Returns false at the
// newest entry.
func (m *Memory) Forward() bool {
	return m.move(1)
}

// Go moves the cursor by delta entries. Returns false when the move
// would leave the stack; the cursor does not move in that case.
func (m *Memory) Go(delta int) bool {
	return m.move(delta)
}

func (m *Memory) move(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = target
	loc := m.entries[m.index]
	subs := make([]func(location.Location), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(loc)
	}
	return true
}

// Len returns the number of entries in the stack.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// CanBack reports whether a Back move is possible.
func (m *Memory) CanBack() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index > 0
}

// CanForward reports whether a Forward move is possible.
func (m *Memory) CanForward() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index < len(m.entries)-1
}
