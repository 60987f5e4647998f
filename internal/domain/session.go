package domain

import "time"

// Session is a server-side login. Only the SHA-256 hash of the bearer token is stored.
type Session struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// SessionIdentity is the identity resolved from a valid session token.
type SessionIdentity struct {
	SessionID   int64
	ExpiresAt   time.Time
	User        User
	Permissions []Permission
}
