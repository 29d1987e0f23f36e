// Package guard decides whether a protected page may render for the current
// session, or whether the visitor must be redirected.
package guard

import (
	"context"
	"strings"
	"sync"

	"github.com/carepoint-rx/carepoint/internal/session"
)

// Requirement is the role a page demands
type Requirement string

const (
	RequireAdmin Requirement = "admin"
	RequireUser  Requirement = "user"
	RequireAny   Requirement = "any"
)

// ParseRequirement maps a string onto the closed requirement set. Unknown
// values come back as-is with ok=false and never allow access.
func ParseRequirement(s string) (Requirement, bool) {
	r := Requirement(strings.TrimSpace(strings.ToLower(s)))
	switch r {
	case RequireAdmin, RequireUser, RequireAny:
		return r, true
	default:
		return r, false
	}
}

// Allows reports whether sess satisfies req. A nil session, an empty token
// and an unknown requirement all fail.
func Allows(req Requirement, sess *session.Session) bool {
	if sess == nil || sess.Token == "" {
		return false
	}
	switch req {
	case RequireAny:
		return true
	case RequireAdmin:
		return session.IsAdmin(sess)
	case RequireUser:
		return session.IsUser(sess)
	default:
		return false
	}
}

// State is the guard's position in its per-mount lifecycle
type State int

const (
	Checking State = iota
	Authorized
	Redirecting
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Redirecting:
		return "redirecting"
	default:
		return "checking"
	}
}

// SessionReader is the subset of session.Store the guard needs
type SessionReader interface {
	IsAuthenticated(ctx context.Context) bool
	Get(ctx context.Context) (*session.Session, error)
}

// Guard protects one page mount. It evaluates the session once and then
// stays in the resulting terminal state; a new mount needs a new Guard.
type Guard struct {
	req      Requirement
	redirect string

	mu    sync.Mutex
	state State
	sess  *session.Session
}

// New creates a guard for one mount
func New(req Requirement, redirect string) *Guard {
	return &Guard{req: req, redirect: redirect}
}

// Check evaluates the session on first call and returns the terminal state.
// Later calls return the same state without looking at the session again.
func (g *Guard) Check(ctx context.Context, sessions SessionReader) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Checking {
		return g.state
	}

	g.state = Redirecting
	if sessions == nil || !sessions.IsAuthenticated(ctx) {
		return g.state
	}

	// A session that is malformed or missing from either store redirects,
	// whatever the requirement
	sess, err := sessions.Get(ctx)
	if err != nil || !Allows(g.req, sess) {
		return g.state
	}

	g.sess = sess
	g.state = Authorized
	return g.state
}

// State returns the current state without evaluating anything
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the session that authorized the mount, or nil
func (g *Guard) Session() *session.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sess
}

// Redirect returns the configured redirect target
func (g *Guard) Redirect() string {
	return g.redirect
}

// Requirement returns the role the guard enforces
func (g *Guard) Requirement() Requirement {
	return g.req
}
