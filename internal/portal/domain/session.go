package domain

import "time"

// Session is a server-side login session. The browser only holds an opaque
// token; TokenHash is its keyed fingerprint.
type Session struct {
	ID        string
	TokenHash string
	UserID    string         // provider subject ("sub")
	Claims    map[string]any // ID token claims, verbatim
	IDToken   string         // raw ID token, used as logout hint
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
