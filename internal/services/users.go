package services

import (
	"context"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/session"
)

// GetAllUsers lists accounts with their summary totals (admin)
func (s *Service) GetAllUsers(ctx context.Context, params ListParams) (*UserPage, error) {
	var resp api.Envelope[UserPage]
	if err := s.gw.Get(ctx, "/admin/users", &resp, params.option()); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetUser returns one account (admin)
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	var resp api.Envelope[User]
	if err := s.gw.Get(ctx, idPath("/admin/users/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

type roleUpdate struct {
	Role session.Role `json:"role"`
}

// UpdateUserRole changes an account's role (admin)
func (s *Service) UpdateUserRole(ctx context.Context, id int64, role session.Role) (*User, error) {
	if !role.Valid() {
		return nil, &InputError{Field: "role", Message: "must be admin or user"}
	}

	var resp api.Envelope[User]
	if err := s.gw.Put(ctx, idPath("/admin/users/%d/role", id), roleUpdate{Role: role}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// DeleteUser removes an account (admin)
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	var resp api.Message
	return s.gw.Delete(ctx, idPath("/admin/users/%d", id), &resp)
}
