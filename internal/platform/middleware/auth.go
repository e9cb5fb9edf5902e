package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/platform/httputil"
	"technoreg/pkg/requestcontext"
)

// Authenticator resolves a bearer token to an access level.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (requestcontext.AccessLevel, error)
}

// RequireSession rejects requests without a valid session token and
// threads the resolved access level through the context. Both admin and
// viewer sessions pass; write gating happens in the services.
func RequireSession(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session token required"))
				return
			}

			level, err := auth.Authenticate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "session rejected",
					"request_id", requestcontext.RequestID(ctx),
					"client_ip", requestcontext.ClientIP(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithLevel(ctx, level)))
		})
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
