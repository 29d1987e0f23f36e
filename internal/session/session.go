// Package session persists the authenticated user's credentials and answers
// role questions about them.
//
// A Session lives in two backends at once (a key/value "local" store and a
// cookie jar). Store keeps them consistent and treats any disagreement
// between them as "not authenticated".
package session

import (
	"errors"
	"strings"
	"time"
)

// DefaultTTL is the lifetime of every session cookie.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNoSession is returned when no usable session is stored.
	// Malformed and inconsistent sessions wrap it as well.
	ErrNoSession = errors.New("no session")

	// ErrInvalidSession is returned when trying to persist a session that
	// lacks a token or carries an unknown role.
	ErrInvalidSession = errors.New("invalid session")
)

// Role is the authorization role attached to a session.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps a stored role string onto the closed role set.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Session is the authenticated user's token, role and id.
type Session struct {
	Token  string
	Role   Role
	UserID int64

	// Display-only fields, carried in the local store's user entry
	Name  string
	Email string
}

// IsAdmin reports whether s belongs to an administrator. Nil is never admin.
func IsAdmin(s *Session) bool {
	return s != nil && s.Role == RoleAdmin
}

// IsUser reports whether s belongs to a regular customer. Nil is never a user.
func IsUser(s *Session) bool {
	return s != nil && s.Role == RoleUser
}

func (s Session) validate() error {
	if s.Token == "" {
		return errors.Join(ErrInvalidSession, errors.New("empty token"))
	}
	if !s.Role.Valid() {
		return errors.Join(ErrInvalidSession, errors.New("unknown role "+string(s.Role)))
	}
	return nil
}

// sameIdentity compares the fields both backends persist.
func sameIdentity(a, b *Session) bool {
	return a.Token == b.Token && a.Role == b.Role && a.UserID == b.UserID
}
