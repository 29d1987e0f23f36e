package session

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// LoginUser is the user object returned alongside a token on login
type LoginUser struct {
	ID    int64
	Role  string
	Name  string
	Email string
}

// FromLogin builds a Session from a login response. When the user object
// lacks its role or id, the token's (unverified) JWT claims fill the gap.
// The signature is the API's business; the claims are only a fallback.
func FromLogin(token string, u LoginUser) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("%w: empty token", ErrInvalidSession)
	}

	s := Session{
		Token:  token,
		Role:   Role(u.Role),
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
	}

	if s.Role == "" || s.UserID == 0 {
		claims, err := unverifiedClaims(token)
		if err != nil {
			return Session{}, fmt.Errorf("%w: login response has no role or id and token claims are unreadable: %v", ErrInvalidSession, err)
		}
		if s.Role == "" {
			if r, ok := claims["role"].(string); ok {
				s.Role = Role(r)
			}
		}
		if s.UserID == 0 {
			s.UserID = claimID(claims)
		}
	}

	if err := s.validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

func unverifiedClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func claimID(claims jwt.MapClaims) int64 {
	for _, key := range []string{"user_id", "sub", "id"} {
		switch v := claims[key].(type) {
		case float64:
			return int64(v)
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				return id
			}
		}
	}
	return 0
}
