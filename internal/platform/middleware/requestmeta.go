// Package middleware holds the HTTP middleware chain: request metadata
// capture and session authentication.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"technoreg/pkg/requestcontext"
)

// RequestMeta stamps every request with an ID, a request-scoped "now", and
// client metadata. Applied first so everything downstream can rely on it.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := r.Context()
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		ctx = requestcontext.WithClientMetadata(ctx,
			clientIPFromRequest(r),
			deviceSummary(r.Header.Get("User-Agent")),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIPFromRequest extracts the originating client IP, honoring
// proxy headers.
func clientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client.
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// deviceSummary condenses a User-Agent header into a short label for
// audit events, e.g. "Chrome 122 / Linux".
func deviceSummary(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	if name == "" {
		return ua
	}
	if major, _, ok := strings.Cut(version, "."); ok {
		version = major
	}
	summary := strings.TrimSpace(fmt.Sprintf("%s %s", name, version))
	if os := parsed.OSInfo().Name; os != "" {
		summary = fmt.Sprintf("%s / %s", summary, os)
	}
	return summary
}
