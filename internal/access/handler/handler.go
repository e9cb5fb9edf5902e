package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"technoreg/internal/access"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/platform/httputil"
	"technoreg/pkg/requestcontext"
)

// Service defines the access operations the handler needs.
type Service interface {
	Login(ctx context.Context, password string) (*access.Session, error)
	Logout(ctx context.Context, token string) error
}

// Handler wires the login endpoints to the access service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an access handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the session endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
}

// LoginRequest is the HTTP request body for POST /auth/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *LoginRequest) Validate() error {
	if r == nil || r.Password == "" {
		return dErrors.NewField("password", "password is required")
	}
	return nil
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.service.Login(ctx, req.Password)
	if err != nil {
		h.logger.InfoContext(ctx, "login rejected",
			"request_id", requestID,
			"client_ip", requestcontext.ClientIP(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// HandleLogout handles POST /api/auth/logout, revoking the bearer token.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := BearerToken(r)
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
		return
	}
	if err := h.service.Logout(ctx, token); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
