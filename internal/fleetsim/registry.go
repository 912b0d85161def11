package fleetsim

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one active login. Tokens referencing a session that is no
// longer registered are rejected even before their JWT expiry.
type Session struct {
	ID             string
	UserID         string
	UserAgent      string
	IPAddress      string
	LoginAt        time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
}

// sessionRegistry tracks active sessions per user and enforces the
// max-sessions cap by evicting the oldest login. All accessors hand out
// copies so callers never share registry-owned memory.
type sessionRegistry struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	maxSessions int
}

func newSessionRegistry(maxSessions int) *sessionRegistry {
	return &sessionRegistry{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
	}
}

func (r *sessionRegistry) create(userID, userAgent, ip string, expiresAt time.Time) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	s := &Session{
		ID:             uuid.New().String(),
		UserID:         userID,
		UserAgent:      userAgent,
		IPAddress:      ip,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}
	r.sessions[s.ID] = s

	// Oldest login goes first when over the cap.
	active := r.userSessionsLocked(userID)
	for len(active) > r.maxSessions {
		oldest := active[0]
		for _, candidate := range active {
			if candidate.LoginAt.Before(oldest.LoginAt) {
				oldest = candidate
			}
		}
		delete(r.sessions, oldest.ID)
		active = r.userSessionsLocked(userID)
	}
	return *s
}

// get returns the session if it is registered and unexpired.
func (r *sessionRegistry) get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || time.Now().After(s.ExpiresAt) {
		return Session{}, false
	}
	return *s, true
}

func (r *sessionRegistry) touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.LastActivityAt = time.Now()
	}
}

func (r *sessionRegistry) terminate(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// listForUser returns the user's active sessions, newest login first.
func (r *sessionRegistry) listForUser(userID string) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Session
	for _, s := range r.userSessionsLocked(userID) {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LoginAt.After(out[j].LoginAt)
	})
	return out
}

func (r *sessionRegistry) countForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.userSessionsLocked(userID))
}

func (r *sessionRegistry) userSessionsLocked(userID string) []*Session {
	now := time.Now()
	var out []*Session
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if now.After(s.ExpiresAt) {
			delete(r.sessions, s.ID)
			continue
		}
		out = append(out, s)
	}
	return out
}
