package services

import (
	"context"

	"github.com/carepoint-rx/carepoint/internal/api"
)

// GetAddresses lists the current user's shipping addresses
func (s *Service) GetAddresses(ctx context.Context) ([]Address, error) {
	var resp api.List[Address]
	if err := s.gw.Get(ctx, "/addresses", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateAddress saves a shipping address
func (s *Service) CreateAddress(ctx context.Context, in Address) (*Address, error) {
	if err := validateInput("address", in); err != nil {
		return nil, err
	}

	var resp api.Envelope[Address]
	if err := s.gw.Post(ctx, "/addresses", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// DeleteAddress removes a shipping address
func (s *Service) DeleteAddress(ctx context.Context, id int64) error {
	var resp api.Message
	return s.gw.Delete(ctx, idPath("/addresses/%d", id), &resp)
}
