package session

import (
	"sync"

	"github.com/google/uuid"
)

// Registry keeps the session of every client of this context, keyed by an
// opaque token handed out in a cookie.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Start stores a session under a fresh token and returns the token.
func (r *Registry) Start(s Session) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.sessions[token] = s
	r.mu.Unlock()
	return token
}

// Get returns the session for a token; unknown tokens are unauthenticated.
func (r *Registry) Get(token string) Session {
	if token == "" {
		return Unauthenticated
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[token]
	if !ok {
		return Unauthenticated
	}
	return s
}

// Set replaces the session for a token. Unauthenticated sessions are dropped.
func (r *Registry) Set(token string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Role == RoleUnauthenticated || s.Role == "" {
		delete(r.sessions, token)
		return
	}
	r.sessions[token] = s
}

// End removes a token.
func (r *Registry) End(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
