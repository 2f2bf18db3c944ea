// Package session tracks authenticated user sessions and notifies
// listeners on login/logout so dependents (the scheduling engine, the
// HTTP middleware) can follow the session lifecycle.
package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Session is one authenticated user session. It satisfies the engine's
// session guard: IsAuthenticated flips false on logout and stays false,
// so an engine holding a stale pointer degrades to a no-op.
type Session struct {
	Token   string
	OwnerID string

	mu     sync.Mutex
	active bool
}

// IsAuthenticated reports whether the session is still live.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CurrentUserID returns the owner the session belongs to.
func (s *Session) CurrentUserID() string {
	return s.OwnerID
}

func (s *Session) deactivate() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// Listener receives session lifecycle callbacks. Callbacks run
// synchronously on the Login/Logout caller's goroutine.
type Listener interface {
	SessionStarted(s *Session)
	SessionEnded(s *Session)
}

// Manager issues and resolves session tokens. Tokens are opaque UUIDs;
// there is no expiry in this layer, logout is explicit.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	listeners []Listener
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Subscribe registers a lifecycle listener. Must be called before
// sessions start; listeners are not notified about pre-existing sessions.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Login starts a new session for ownerID and notifies listeners.
func (m *Manager) Login(ownerID string) *Session {
	s := &Session{
		Token:   uuid.NewString(),
		OwnerID: ownerID,
		active:  true,
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	slog.Info("[Session] Login", "owner_id", ownerID)
	for _, l := range listeners {
		l.SessionStarted(s)
	}
	return s
}

// Logout ends the session for token. Returns false if the token is
// unknown (already logged out, or never issued).
func (m *Manager) Logout(token string) bool {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if ok {
		delete(m.sessions, token)
	}
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if !ok {
		return false
	}

	// Deactivate before notifying so a scheduler tick racing the logout
	// already sees an unauthenticated session.
	s.deactivate()

	slog.Info("[Session] Logout", "owner_id", s.OwnerID)
	for _, l := range listeners {
		l.SessionEnded(s)
	}
	return true
}

// Lookup resolves a token to its live session.
func (m *Manager) Lookup(token string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	return s, ok
}
