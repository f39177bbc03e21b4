package model

import "time"

// Session links a browser to a signed-in user. The browser holds a signed
// token naming the session ID; the row itself lives server-side so that
// signing out invalidates it immediately.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer usable at time now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
