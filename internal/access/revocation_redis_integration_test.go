//go:build integration

package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technoreg/internal/access"
	"technoreg/pkg/testutil/containers"
)

func TestRedisRevocationList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	list := access.NewRedisRevocationList(rc.Client)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "unknown-jti")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// A short TTL expires the marker.
	require.NoError(t, list.Revoke(ctx, "jti-2", 50*time.Millisecond))
	time.Sleep(200 * time.Millisecond)
	revoked, err = list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	// Empty jti is a no-op on both sides.
	require.NoError(t, list.Revoke(ctx, "", time.Minute))
	revoked, err = list.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}
