package session

import (
	"context"
	"sync"
)

// Manager hands out one live session per order id. Sessions are created
// lazily on first access and torn down together on shutdown.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
}

func NewManager(opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Get returns the live session for id, attaching one from the record backend
// if none exists yet.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// Fetch happens outside the map lock; a concurrent attach for the same
	// id is resolved below by keeping the first one in.
	s, err := Attach(ctx, id, m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		s.Close()
		return existing, nil
	}
	m.sessions[id] = s
	return s, nil
}

// Drop closes and removes the session for id, if any.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Close()
		delete(m.sessions, id)
	}
}

// Close tears down every live session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}
