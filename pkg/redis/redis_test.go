package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestTokenBlacklist(t *testing.T) {
	mr, c := setupMiniredis(t)
	bl := NewTokenBlacklist(c)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "token-a", time.Minute))

	revoked, err = bl.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = bl.IsRevoked(ctx, "token-b")
	require.NoError(t, err)
	assert.False(t, revoked)

	// raw token never stored as a key
	assert.False(t, mr.Exists(blacklistPrefix+"token-a"))

	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist_ZeroTTLIsNoop(t *testing.T) {
	mr, c := setupMiniredis(t)
	bl := NewTokenBlacklist(c)

	require.NoError(t, bl.Revoke(context.Background(), "expired", 0))
	assert.Empty(t, mr.Keys())
}

func TestTokenBlacklist_ConnectionError(t *testing.T) {
	mr, c := setupMiniredis(t)
	bl := NewTokenBlacklist(c)
	mr.Close()

	_, err := bl.IsRevoked(context.Background(), "token")
	assert.Error(t, err)
}

func TestNewTokenBlacklist_NilClient(t *testing.T) {
	assert.Nil(t, NewTokenBlacklist(nil))
}
