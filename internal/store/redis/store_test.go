package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, prefix), mr
}

func TestStore_GetMiss(t *testing.T) {
	s, _ := newTestStore(t, "")

	v, ok, err := s.Get(context.Background(), "pocket-access-token")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestStore_SetWithTTL(t *testing.T) {
	s, mr := newTestStore(t, "")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "onedrive-access-token", "tok", 3600*time.Second))
	assert.Equal(t, time.Hour, mr.TTL("onedrive-access-token"))

	v, ok, err := s.Get(ctx, "onedrive-access-token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	mr.FastForward(time.Hour)
	_, ok, err = s.Get(ctx, "onedrive-access-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SetWithoutTTLClearsExpiry(t *testing.T) {
	s, mr := newTestStore(t, "")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "a", time.Minute))
	require.NoError(t, s.Set(ctx, "k", "b", 0))
	assert.Equal(t, time.Duration(0), mr.TTL("k"))
}

func TestStore_ClearAndPrefix(t *testing.T) {
	s, mr := newTestStore(t, "p2d")
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "pocket-access-token", "x", 0))
	assert.True(t, mr.Exists("p2d:pocket-access-token"))

	require.NoError(t, s.Clear(ctx, "pocket-access-token"))
	assert.False(t, mr.Exists("p2d:pocket-access-token"))
	require.NoError(t, s.Clear(ctx, "pocket-access-token"))
	require.NoError(t, s.Ping(ctx))
}
