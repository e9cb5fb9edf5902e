// Package access gates the admin surface. A single shared password per
// access level is exchanged for a short-lived signed session token; admin
// sessions can mutate, viewer sessions are read-only.
package access

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/requestcontext"
)

// Claims are the session token claims.
type Claims struct {
	Level string `json:"level"`
	jwt.RegisteredClaims
}

// TokenService signs and validates session tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenService(signingKey string, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// TTL reports the session lifetime, which doubles as the revocation TTL.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a session token for the given level. The returned jti
// identifies the token for revocation.
func (s *TokenService) Issue(level requestcontext.AccessLevel, now time.Time) (token string, jti string, err error) {
	jti = uuid.NewString()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Level: string(level),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        jti,
		},
	})

	token, err = newToken.SignedString(s.signingKey)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

// Validate parses and verifies a session token.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}

	switch requestcontext.AccessLevel(claims.Level) {
	case requestcontext.AccessLevelAdmin, requestcontext.AccessLevelViewer:
	default:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	return claims, nil
}
