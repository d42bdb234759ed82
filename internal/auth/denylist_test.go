// AngelaMos | 2026
// denylist_test.go

package auth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/mystery-message/internal/core"
)

func newTestDenylist(t *testing.T) (Denylist, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return NewRedisDenylist(client), server
}

func TestRedisDenylistDenyAndCheck(t *testing.T) {
	list, server := newTestDenylist(t)
	ctx := context.Background()

	require.NoError(t, list.Deny(ctx, "jti-1", time.Now().Add(15*time.Minute)))

	denied, err := list.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, denied)

	ttl := server.TTL("blacklist:jti-1")
	assert.Greater(t, ttl, 14*time.Minute)
	assert.LessOrEqual(t, ttl, 15*time.Minute)

	denied, err = list.IsDenied(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, denied)
}

func TestRedisDenylistEntryExpires(t *testing.T) {
	list, server := newTestDenylist(t)
	ctx := context.Background()

	require.NoError(t, list.Deny(ctx, "jti-1", time.Now().Add(time.Minute)))
	server.FastForward(2 * time.Minute)

	denied, err := list.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)
}

func TestRedisDenylistSkipsSpentTokens(t *testing.T) {
	list, server := newTestDenylist(t)
	ctx := context.Background()

	require.NoError(t, list.Deny(ctx, "jti-old", time.Now().Add(-time.Second)))
	require.NoError(t, list.Deny(ctx, "", time.Now().Add(time.Minute)))
	assert.Empty(t, server.Keys())

	denied, err := list.IsDenied(ctx, "")
	require.NoError(t, err)
	assert.False(t, denied)
}

func TestSignOutDeniesThroughRedis(t *testing.T) {
	f := newAuthFixture(t)
	list, server := newTestDenylist(t)
	f.svc.denylist = list
	ctx := context.Background()

	resp, err := f.svc.SignIn(ctx, SignInRequest{Identifier: "alice", Password: "hunter22"}, "", "")
	require.NoError(t, err)

	session, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	require.NotEmpty(t, session.TokenID)

	require.NoError(t, f.svc.SignOut(ctx, session, resp.Tokens.RefreshToken))
	assert.True(t, server.Exists("blacklist:"+session.TokenID))

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}
