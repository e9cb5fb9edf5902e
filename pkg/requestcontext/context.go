// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and stores read them. Keeping the
// package free of net/http lets domain code import it without pulling in
// transport concerns.
package requestcontext

import (
	"context"
	"time"
)

// AccessLevel is the two-tier permission model threaded through every
// mutating operation. How a caller obtained the level (session token,
// test injection) is deliberately outside this package.
type AccessLevel string

const (
	AccessLevelNone   AccessLevel = ""
	AccessLevelViewer AccessLevel = "viewer"
	AccessLevelAdmin  AccessLevel = "admin"
)

// CanWrite reports whether the level permits mutating operations.
func (l AccessLevel) CanWrite() bool { return l == AccessLevelAdmin }

// Context key types (unexported for encapsulation).
type (
	accessLevelKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
	deviceKey      struct{}
)

// Level retrieves the caller's access level from the context.
// Returns AccessLevelNone if not set.
func Level(ctx context.Context) AccessLevel {
	if l, ok := ctx.Value(accessLevelKey{}).(AccessLevel); ok {
		return l
	}
	return AccessLevelNone
}

// WithLevel injects an access level into the context.
func WithLevel(ctx context.Context, level AccessLevel) context.Context {
	return context.WithValue(ctx, accessLevelKey{}, level)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// Device retrieves the parsed client device summary ("Chrome 122 / Linux").
func Device(ctx context.Context) string {
	if d, ok := ctx.Value(deviceKey{}).(string); ok {
		return d
	}
	return ""
}

// WithClientMetadata injects client IP and device summary into a context.
func WithClientMetadata(ctx context.Context, clientIP, device string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, deviceKey{}, device)
}
