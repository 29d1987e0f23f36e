package services

import (
	"context"

	"github.com/carepoint-rx/carepoint/internal/api"
)

var orderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// CreateOrder places an order for the current user
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderRequest) (*Order, error) {
	if err := validateInput("order", in); err != nil {
		return nil, err
	}

	var resp api.Envelope[Order]
	if err := s.gw.Post(ctx, "/orders", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetMyOrders lists the current user's orders
func (s *Service) GetMyOrders(ctx context.Context, params ListParams) ([]Order, error) {
	var resp api.List[Order]
	if err := s.gw.Get(ctx, "/orders/my", &resp, params.option()); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetOrder returns one order
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var resp api.Envelope[Order]
	if err := s.gw.Get(ctx, idPath("/orders/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// CancelOrder cancels one of the current user's orders
func (s *Service) CancelOrder(ctx context.Context, id int64) (*Order, error) {
	var resp api.Envelope[Order]
	if err := s.gw.Post(ctx, idPath("/orders/%d/cancel", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetAllOrders lists every order with summary totals (admin)
func (s *Service) GetAllOrders(ctx context.Context, params ListParams) (*OrderPage, error) {
	var resp api.Envelope[OrderPage]
	if err := s.gw.Get(ctx, "/admin/orders", &resp, params.option()); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

type statusUpdate struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order to another status (admin)
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status string) (*Order, error) {
	if err := oneOf("status", status, orderStatuses...); err != nil {
		return nil, err
	}

	var resp api.Envelope[Order]
	if err := s.gw.Put(ctx, idPath("/admin/orders/%d/status", id), statusUpdate{Status: status}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
