package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"technoreg/internal/audit"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/requestcontext"
)

// AuditPublisher records login events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service exchanges level passwords for session tokens and resolves
// presented tokens back to an access level.
type Service struct {
	tokens     *TokenService
	revocation RevocationList
	adminHash  []byte
	viewerHash []byte
	logger     *slog.Logger
	audit      AuditPublisher
}

// Option configures optional Service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.audit = publisher
		}
	}
}

// NewService hashes the configured passwords up front so login compares
// digests rather than the raw secrets.
func NewService(tokens *TokenService, revocation RevocationList, adminPassword, viewerPassword string, opts ...Option) (*Service, error) {
	if adminPassword == "" || viewerPassword == "" {
		return nil, fmt.Errorf("access passwords must be configured")
	}
	if adminPassword == viewerPassword {
		return nil, fmt.Errorf("admin and viewer passwords must differ")
	}
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	viewerHash, err := bcrypt.GenerateFromPassword([]byte(viewerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash viewer password: %w", err)
	}

	s := &Service{
		tokens:     tokens,
		revocation: revocation,
		adminHash:  adminHash,
		viewerHash: viewerHash,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Session is an issued session token plus its metadata.
type Session struct {
	Token     string                     `json:"token"`
	Level     requestcontext.AccessLevel `json:"level"`
	ExpiresAt time.Time                  `json:"expiresAt"`
}

// Login resolves the password to a level and issues a session token.
// The password alone selects the level; there are no usernames.
func (s *Service) Login(ctx context.Context, password string) (*Session, error) {
	now := requestcontext.Now(ctx)

	var level requestcontext.AccessLevel
	switch {
	case bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) == nil:
		level = requestcontext.AccessLevelAdmin
	case bcrypt.CompareHashAndPassword(s.viewerHash, []byte(password)) == nil:
		level = requestcontext.AccessLevelViewer
	default:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "incorrect password")
	}

	token, jti, err := s.tokens.Issue(level, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue session token")
	}

	s.logger.InfoContext(ctx, "session issued",
		"level", level,
		"jti", jti,
		"request_id", requestcontext.RequestID(ctx))
	if s.audit != nil {
		_ = s.audit.Emit(ctx, audit.Event{
			Timestamp: now,
			Action:    audit.ActionLogin,
			Actor:     level,
			RequestID: requestcontext.RequestID(ctx),
			ClientIP:  requestcontext.ClientIP(ctx),
			Device:    requestcontext.Device(ctx),
		})
	}

	return &Session{Token: token, Level: level, ExpiresAt: now.Add(s.tokens.TTL())}, nil
}

// Logout revokes the presented session token. An already-invalid token is
// not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil
	}
	if err := s.revocation.Revoke(ctx, claims.ID, s.tokens.TTL()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "revoke session")
	}
	return nil
}

// Authenticate resolves a presented token to an access level, honoring
// revocation. A revocation backend error fails closed.
func (s *Service) Authenticate(ctx context.Context, token string) (requestcontext.AccessLevel, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return requestcontext.AccessLevelNone, err
	}
	revoked, err := s.revocation.IsRevoked(ctx, claims.ID)
	if err != nil {
		return requestcontext.AccessLevelNone, dErrors.Wrap(err, dErrors.CodeUnavailable, "check session revocation")
	}
	if revoked {
		return requestcontext.AccessLevelNone, dErrors.New(dErrors.CodeUnauthorized, "session has been revoked")
	}
	return requestcontext.AccessLevel(claims.Level), nil
}
