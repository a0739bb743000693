package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-miniapp-gateway/internal/common/cache"
	"news-miniapp-gateway/internal/common/cache/cachetest"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/session/repository"
)

func TestClaimStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mem := cachetest.NewMemory()
	store := NewClaimStore(cache.NewCacheService(mem))

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	claim := &identity.Claim{ID: 42, FirstName: "Ann"}
	require.NoError(t, store.Save(ctx, "s1", claim, time.Hour))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, claim, got)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestClaimStoreExpires(t *testing.T) {
	ctx := context.Background()
	mem := cachetest.NewMemory()
	store := NewClaimStore(cache.NewCacheService(mem))

	require.NoError(t, store.Save(ctx, "s1", &identity.Claim{ID: 1}, time.Minute))
	mem.Advance(2 * time.Minute)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}
