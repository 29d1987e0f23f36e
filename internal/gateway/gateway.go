package gateway

import (
	"context"

	"github.com/carepoint-rx/carepoint/internal/api"
)

// Gateway is the API client every service function calls. Each method sends
// the request once and routes any failure through the Handler before
// returning it.
type Gateway struct {
	client  *api.Client
	handler *Handler
}

// New creates a Gateway
func New(client *api.Client, handler *Handler) *Gateway {
	return &Gateway{client: client, handler: handler}
}

// Get sends a GET request
func (g *Gateway) Get(ctx context.Context, path string, out any, opts ...api.RequestOption) error {
	return g.handler.Handle(ctx, g.client.Get(ctx, path, out, opts...))
}

// Post sends a POST request
func (g *Gateway) Post(ctx context.Context, path string, body, out any, opts ...api.RequestOption) error {
	return g.handler.Handle(ctx, g.client.Post(ctx, path, body, out, opts...))
}

// Put sends a PUT request
func (g *Gateway) Put(ctx context.Context, path string, body, out any, opts ...api.RequestOption) error {
	return g.handler.Handle(ctx, g.client.Put(ctx, path, body, out, opts...))
}

// Patch sends a PATCH request
func (g *Gateway) Patch(ctx context.Context, path string, body, out any, opts ...api.RequestOption) error {
	return g.handler.Handle(ctx, g.client.Patch(ctx, path, body, out, opts...))
}

// Delete sends a DELETE request
func (g *Gateway) Delete(ctx context.Context, path string, out any, opts ...api.RequestOption) error {
	return g.handler.Handle(ctx, g.client.Delete(ctx, path, out, opts...))
}
