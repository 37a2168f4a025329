// Package logging carries request-scoped fields from the context into zerolog.
package logging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext extends base with the request id and authenticated user found in ctx.
func FromContext(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	fields := base.With()

	if requestID := RequestID(ctx); requestID != "" {
		fields = fields.Str("request_id", requestID)
	}

	if user, ok := domain.UserFromContext(ctx); ok {
		fields = fields.Str("user_id", user.ID)
	}

	return fields.Logger()
}
