package models

import "time"

// SessionDescriptor is the server-reported record of one active login.
// It is read-only on the client; is_current marks the session backing the
// locally held credentials.
type SessionDescriptor struct {
	ID             string    `json:"id"`
	UserAgent      string    `json:"user_agent,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	TimeRemaining  int64     `json:"time_remaining"`
	ExpiringSoon   bool      `json:"expiring_soon"`
	IsCurrent      bool      `json:"is_current"`
}

// SessionStatus summarizes the current session as reported by the backend.
type SessionStatus struct {
	SessionID      string    `json:"session_id"`
	ExpiresAt      time.Time `json:"expires_at"`
	TimeRemaining  int64     `json:"time_remaining"`
	ExpiringSoon   bool      `json:"expiring_soon"`
	ActiveSessions int       `json:"active_sessions_count"`
	MaxSessions    int       `json:"max_sessions"`
}
