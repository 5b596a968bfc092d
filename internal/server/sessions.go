package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionRegistry tracks live admin sessions. A token is only honored while
// its session is registered, so sessions can end before the token expires.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]time.Time
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[uuid.UUID]time.Time)}
}

// Start registers a new session valid until expiresAt.
func (r *sessionRegistry) Start(id uuid.UUID, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = expiresAt
}

// Active implements middleware.SessionChecker.
func (r *sessionRegistry) Active(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.sessions[id]
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		delete(r.sessions, id)
		return false
	}
	return true
}

// End removes one session.
func (r *sessionRegistry) End(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// EndAll removes every session and returns how many were live.
func (r *sessionRegistry) EndAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.sessions)
	r.sessions = make(map[uuid.UUID]time.Time)
	return n
}
