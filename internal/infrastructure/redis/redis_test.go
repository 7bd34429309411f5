package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/CRM-api/internal/application/auth"
)

var _ auth.TokenRevoker = (*TokenBlacklist)(nil)

func setup(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenBlacklist(client), mr
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://nope")
	assert.Error(t, err)
}

func TestTokenBlacklist_RevokeAndCheck(t *testing.T) {
	bl, mr := setup(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "a.b.c")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "a.b.c", time.Hour))
	revoked, err = bl.IsRevoked(ctx, "a.b.c")
	require.NoError(t, err)
	assert.True(t, revoked)

	// el token no se guarda en claro
	assert.False(t, mr.Exists(blacklistPrefix+"a.b.c"))
	assert.True(t, mr.Exists(key("a.b.c")))

	revoked, err = bl.IsRevoked(ctx, "otro.token")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist_Expires(t *testing.T) {
	bl, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, bl.Revoke(ctx, "t", time.Minute))
	mr.FastForward(2 * time.Minute)

	revoked, err := bl.IsRevoked(ctx, "t")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist_ZeroTTLIsNoop(t *testing.T) {
	bl, mr := setup(t)
	require.NoError(t, bl.Revoke(context.Background(), "t", 0))
	assert.Empty(t, mr.Keys())
}
