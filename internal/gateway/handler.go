// Package gateway is the single entry point page and service code uses to
// talk to the API. It pairs the side-effect-free api.Client with Handler,
// which performs the global reaction to every failure and then returns the
// error unchanged so callers can add their own handling.
package gateway

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/apierr"
	"github.com/carepoint-rx/carepoint/internal/notify"
)

// LoginRoute is where an expired session is sent
const LoginRoute = "/auth/login"

// User-facing messages
const (
	MsgSessionExpired     = "Your session has expired. Please log in again."
	MsgForbidden          = "You do not have permission to perform this action."
	MsgNotFound           = "The requested resource was not found."
	MsgValidation         = "Please check your input and try again."
	MsgServerError        = "Server error. Please try again later."
	MsgNetwork            = "Network error. Please check your connection."
	MsgUnclassified       = "An unexpected error occurred. Please try again."
	MsgUnexpectedResponse = "Received an unexpected response from the server."
)

// SessionClearer destroys the current session in every store
type SessionClearer interface {
	Clear(ctx context.Context) error
}

// Navigator moves the user to another route
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(route string)

// Navigate implements Navigator
func (f NavigatorFunc) Navigate(route string) { f(route) }

// HandlerOptions groups dependencies for Handler
type HandlerOptions struct {
	Sessions   SessionClearer
	Notifier   notify.Notifier
	Navigator  Navigator
	Logger     zerolog.Logger
	LoginRoute string // defaults to LoginRoute
}

// Handler applies the global side effects for failed API calls
type Handler struct {
	sessions   SessionClearer
	notifier   notify.Notifier
	navigator  Navigator
	logger     zerolog.Logger
	loginRoute string
}

// NewHandler constructs a Handler
func NewHandler(opts HandlerOptions) *Handler {
	h := &Handler{
		sessions:   opts.Sessions,
		notifier:   opts.Notifier,
		navigator:  opts.Navigator,
		logger:     opts.Logger,
		loginRoute: opts.LoginRoute,
	}
	if h.loginRoute == "" {
		h.loginRoute = LoginRoute
	}
	if h.notifier == nil {
		h.notifier = notify.NotifierFunc(func(notify.Notification) {})
	}
	if h.navigator == nil {
		h.navigator = NavigatorFunc(func(string) {})
	}
	return h
}

// Handle performs the side effects for err and returns err unchanged.
// Nil in, nil out.
func (h *Handler) Handle(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	e, ok := apierr.As(err)
	if !ok {
		var decodeErr *api.DecodeError
		if errors.As(err, &decodeErr) {
			h.logger.Error().Err(err).Msg("API response failed validation")
			h.notifier.Notify(notify.Error(MsgUnexpectedResponse))
		}
		// Anything else (cancellation, request construction) is the caller's
		return err
	}

	// A request abandoned by its caller is not a network failure
	if e.Kind == apierr.NetworkFailure && errors.Is(e.Err, context.Canceled) {
		return err
	}

	log := h.logger.With().
		Str("kind", e.Kind.String()).
		Int("status", e.Status).
		Str("method", e.Method).
		Str("path", e.Path).
		Logger()

	switch e.Kind {
	case apierr.Unauthorized:
		log.Info().Msg("Session rejected by API, logging out")
		if h.sessions != nil {
			if clearErr := h.sessions.Clear(ctx); clearErr != nil {
				log.Error().Err(clearErr).Msg("Failed to clear session")
			}
		}
		h.notifier.Notify(notify.Error(messageFor(ctx, apierr.Unauthorized, MsgSessionExpired)))
		h.navigator.Navigate(h.loginRoute)

	case apierr.Forbidden:
		log.Warn().Msg("API refused access")
		h.notifier.Notify(notify.Error(messageFor(ctx, apierr.Forbidden, MsgForbidden)))

	case apierr.NotFound:
		log.Debug().Msg("API resource not found")
		h.notifier.Notify(notify.Error(messageFor(ctx, apierr.NotFound, MsgNotFound)))

	case apierr.ValidationFailed:
		log.Debug().Int("field_errors", len(e.Fields)).Msg("API rejected input")
		if len(e.Fields) == 0 {
			h.notifier.Notify(notify.Error(messageFor(ctx, apierr.ValidationFailed, MsgValidation)))
			break
		}
		for _, f := range e.Fields {
			h.notifier.Notify(notify.Error(f.Message))
		}

	case apierr.ServerError:
		log.Error().Str("message", e.Message).Msg("API server error")
		h.notifier.Notify(notify.Error(messageFor(ctx, apierr.ServerError, MsgServerError)))

	case apierr.NetworkFailure:
		log.Warn().Err(e.Err).Msg("API unreachable")
		h.notifier.Notify(notify.Error(messageFor(ctx, apierr.NetworkFailure, MsgNetwork)))

	default:
		log.Warn().Str("message", e.Message).Msg("API request failed")
		h.notifier.Notify(notify.Error(messageFor(ctx, e.Kind, MsgUnclassified)))
	}

	return err
}
