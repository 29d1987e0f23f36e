// Package services holds one typed function per API endpoint the portal
// uses. Every call goes through the gateway, so failures have already been
// reported to the user by the time a caller sees the error.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/gateway"
	"github.com/carepoint-rx/carepoint/internal/session"
)

// SessionWriter is the part of session.Store login and logout need
type SessionWriter interface {
	Set(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

// Service exposes the API endpoints
type Service struct {
	gw       *gateway.Gateway
	sessions SessionWriter
	logger   zerolog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a Service
func New(gw *gateway.Gateway, sessions SessionWriter, opts ...Option) *Service {
	s := &Service{
		gw:       gw,
		sessions: sessions,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListParams are the pagination and filter parameters list pages send
type ListParams struct {
	Page     int
	PerPage  int
	Search   string
	Status   string
	Role     string
	Category string
}

// Values encodes the non-zero parameters as a query string
func (p ListParams) Values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Role != "" {
		q.Set("role", p.Role)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	return q
}

func (p ListParams) option() api.RequestOption {
	return api.WithQuery(p.Values())
}

// validateInput checks request-side struct tags before anything is sent
func validateInput(what string, v any) error {
	if err := api.Validate(v); err != nil {
		return fmt.Errorf("invalid %s: %w", what, err)
	}
	return nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

// InputError rejects a request before it is sent
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &InputError{Field: field, Message: fmt.Sprintf("%q is not one of %v", value, allowed)}
}
