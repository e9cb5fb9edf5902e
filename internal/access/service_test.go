package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/requestcontext"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	tokens := NewTokenService("test-signing-key", "technoreg", time.Hour)
	svc, err := NewService(tokens, NewMemoryRevocationList(), "admin-secret", "viewer-secret")
	require.NoError(t, err)
	return svc
}

func TestLoginResolvesLevelFromPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Login(ctx, "admin-secret")
	require.NoError(t, err)
	assert.Equal(t, requestcontext.AccessLevelAdmin, admin.Level)
	assert.NotEmpty(t, admin.Token)

	viewer, err := svc.Login(ctx, "viewer-secret")
	require.NoError(t, err)
	assert.Equal(t, requestcontext.AccessLevelViewer, viewer.Level)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Login(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAuthenticateRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin-secret")
	require.NoError(t, err)

	level, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, requestcontext.AccessLevelAdmin, level)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAuthenticateRejectsForeignKey(t *testing.T) {
	svc := newTestService(t)
	other := NewTokenService("other-signing-key", "technoreg", time.Hour)
	token, _, err := other.Issue(requestcontext.AccessLevelAdmin, time.Now())
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "viewer-secret")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, session.Token))

	_, err = svc.Authenticate(ctx, session.Token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// Logging out an already-dead token is fine.
	assert.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestExpiredTokenRejected(t *testing.T) {
	tokens := NewTokenService("test-signing-key", "technoreg", time.Minute)
	svc, err := NewService(tokens, NewMemoryRevocationList(), "admin-secret", "viewer-secret")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Minute)
	token, _, err := tokens.Issue(requestcontext.AccessLevelAdmin, past)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestNewServiceRejectsBadPasswordConfig(t *testing.T) {
	tokens := NewTokenService("k", "technoreg", time.Hour)

	_, err := NewService(tokens, NewMemoryRevocationList(), "", "viewer")
	assert.Error(t, err)

	_, err = NewService(tokens, NewMemoryRevocationList(), "same", "same")
	assert.Error(t, err)
}

func TestMemoryRevocationListExpiry(t *testing.T) {
	list := NewMemoryRevocationList()
	now := time.Now()
	list.clock = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
