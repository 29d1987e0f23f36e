package gateway

import (
	"context"

	"github.com/carepoint-rx/carepoint/internal/apierr"
)

type messagesKey struct{}

// WithMessage returns a context under which a failure of the given kind
// shows msg instead of the default toast. Only the wording changes: a 401
// still clears the session and navigates to the login route. Field-level
// validation messages always come from the response.
func WithMessage(ctx context.Context, kind apierr.Kind, msg string) context.Context {
	prev, _ := ctx.Value(messagesKey{}).(map[apierr.Kind]string)
	next := make(map[apierr.Kind]string, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	next[kind] = msg
	return context.WithValue(ctx, messagesKey{}, next)
}

func messageFor(ctx context.Context, kind apierr.Kind, def string) string {
	if msgs, ok := ctx.Value(messagesKey{}).(map[apierr.Kind]string); ok {
		if msg, ok := msgs[kind]; ok {
			return msg
		}
	}
	return def
}
