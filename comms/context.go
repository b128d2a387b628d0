package comms

import (
	"context"

	"github.com/rs/zerolog"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	sessionCollectionKey
)

// WithSessionID returns a new context with the session ID.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// GetSessionID returns the session ID from the context.
func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// WithSessionCollection returns a new context with the session collection.
func WithSessionCollection(ctx context.Context, sc SessionCollection) context.Context {
	return context.WithValue(ctx, sessionCollectionKey, sc)
}

// GetSessionCollection returns the session collection from the context.
func GetSessionCollection(ctx context.Context) SessionCollection {
	v, _ := ctx.Value(sessionCollectionKey).(SessionCollection)
	return v
}

// WithLogger returns a new context with the logger.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// GetLogger returns the logger from the context. Falls back to the
// zerolog default context logger, which is disabled unless set.
func GetLogger(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
