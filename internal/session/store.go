package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Backend is a single persistence location for a session.
type Backend interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	Token(ctx context.Context) (string, error)
}

// Store fans session reads and writes out to a primary and a secondary
// backend. Callers depend on Store only, never on the backends.
type Store struct {
	primary   Backend
	secondary Backend
	logger    zerolog.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the logger used to report inconsistencies
func WithLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a store writing to both backends.
func NewStore(primary, secondary Backend, opts ...StoreOption) *Store {
	s := &Store{
		primary:   primary,
		secondary: secondary,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current session. A session missing from either backend,
// or whose backends disagree, is reported as ErrNoSession.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	p, err := s.primary.Load(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.secondary.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			s.logger.Warn().Msg("Session present in local store but not in cookies")
		}
		return nil, err
	}

	if !sameIdentity(p, c) {
		s.logger.Warn().
			Int64("local_user_id", p.UserID).
			Int64("cookie_user_id", c.UserID).
			Msg("Session stores disagree")
		return nil, fmt.Errorf("%w: stores disagree", ErrNoSession)
	}

	return p, nil
}

// Set persists sess in both backends. If either write fails both backends
// are cleared, so a failed Set leaves no session rather than a lone or
// stale one.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if err := sess.validate(); err != nil {
		return err
	}

	if err := s.primary.Save(ctx, sess); err != nil {
		s.rollback(ctx)
		return fmt.Errorf("failed to save session: %w", err)
	}

	if err := s.secondary.Save(ctx, sess); err != nil {
		s.rollback(ctx)
		return fmt.Errorf("failed to save session cookies: %w", err)
	}

	return nil
}

func (s *Store) rollback(ctx context.Context) {
	if err := errors.Join(s.primary.Clear(ctx), s.secondary.Clear(ctx)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to roll back partial session write")
	}
}

// Clear removes the session from both backends. It always attempts both,
// and clearing an already empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	err := errors.Join(s.primary.Clear(ctx), s.secondary.Clear(ctx))
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Token returns the bearer token from the primary backend, or "" when none.
func (s *Store) Token(ctx context.Context) (string, error) {
	token, err := s.primary.Token(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	return token, err
}

// IsAuthenticated reports whether a non-empty token exists in the primary
// backend. Storage errors count as unauthenticated.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	token, err := s.Token(ctx)
	return err == nil && token != ""
}
