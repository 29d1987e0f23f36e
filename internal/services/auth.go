package services

import (
	"context"
	"fmt"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/apierr"
	"github.com/carepoint-rx/carepoint/internal/gateway"
	"github.com/carepoint-rx/carepoint/internal/session"
)

// MsgInvalidCredentials replaces the session-expired toast when the login
// request itself is rejected
const MsgInvalidCredentials = "Invalid email or password."

// Login authenticates with email and password and stores the resulting
// session in both session stores
func (s *Service) Login(ctx context.Context, in LoginRequest) (*session.Session, error) {
	if err := validateInput("login request", in); err != nil {
		return nil, err
	}

	var resp api.Envelope[LoginResult]
	loginCtx := gateway.WithMessage(ctx, apierr.Unauthorized, MsgInvalidCredentials)
	if err := s.gw.Post(loginCtx, "/auth/login", in, &resp); err != nil {
		return nil, err
	}

	u := resp.Data.User
	sess, err := session.FromLogin(resp.Data.Token, session.LoginUser{
		ID:    u.ID,
		Role:  u.Role,
		Name:  u.Name,
		Email: u.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read login response: %w", err)
	}

	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info().Int64("user_id", sess.UserID).Str("role", string(sess.Role)).Msg("Logged in")
	return &sess, nil
}

// Register creates a customer account. It does not log the user in.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	if err := validateInput("registration", in); err != nil {
		return nil, err
	}

	var resp api.Envelope[User]
	if err := s.gw.Post(ctx, "/auth/register", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Logout clears the local session. It never calls the API and calling it
// without a session is not an error.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info().Msg("Logged out")
	return nil
}

// Profile returns the authenticated user's account
func (s *Service) Profile(ctx context.Context) (*User, error) {
	var resp api.Envelope[User]
	if err := s.gw.Get(ctx, "/auth/profile", &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
