package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestTokenStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(TokenStoreOptions{Client: client})
	ctx := context.Background()

	token := testutil.Token(t, time.Now().Add(30*time.Minute))
	require.NoError(t, store.Save(ctx, "client-1", token))

	got, err := store.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, token, got)

	ttl, err := client.TTL(ctx, DefaultTokenPrefix+"client-1").Result()
	require.NoError(t, err)
	assert.InDelta(t, (30 * time.Minute).Seconds(), ttl.Seconds(), 5)
}

func TestTokenStore_GetMissing(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(TokenStoreOptions{Client: client})
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNoToken)

	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ports.ErrNoToken)
}

func TestTokenStore_Delete(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(TokenStoreOptions{Client: client, Prefix: "test:token:"})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "client-del", "opaque-token"))
	require.NoError(t, store.Delete(ctx, "client-del"))

	_, err := store.Get(ctx, "client-del")
	assert.ErrorIs(t, err, ports.ErrNoToken)

	// Deleting twice is fine.
	require.NoError(t, store.Delete(ctx, "client-del"))
	require.NoError(t, store.Delete(ctx, ""))
}

func TestTokenStore_OpaqueTokenUsesFallbackTTL(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(TokenStoreOptions{Client: client, FallbackTTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "client-opaque", "opaque-token"))
	ttl, err := client.TTL(ctx, DefaultTokenPrefix+"client-opaque").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}

func TestTokenStore_RejectsExpiredToken(t *testing.T) {
	client := setupTestRedis(t)

	store := NewTokenStore(TokenStoreOptions{Client: client})
	err := store.Save(context.Background(), "client-exp", testutil.Token(t, time.Now().Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenStore_Validation(t *testing.T) {
	store := NewTokenStore(TokenStoreOptions{})
	assert.Error(t, store.Save(context.Background(), "", "tok"))
	assert.Error(t, store.Save(context.Background(), "c", ""))
}
