// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an administrator allowed to edit the site.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Session is a signed-in administrator. The row exists from sign-in until
// sign-out or expiry; deleting it revokes every token that names it.
type Session struct {
	ID        string
	UserID    string
	UserName  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its expiry at t.
func (s *Session) Expired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}
