package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
)

func TestNewStoreSelectsDriver(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	store, err := NewStore(lc, config.Config{Cache: config.Cache{Enabled: false, Driver: "redis"}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, noopStore{}, store)

	store, err = NewStore(lc, config.Config{Cache: config.Cache{Enabled: true, Driver: "memory"}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(lc, config.Config{Cache: config.Cache{Enabled: true, Driver: "memcached"}}, zap.NewNop())
	assert.EqualError(t, err, "unsupported cache driver: memcached")
}

func TestMemoryStoreExpiresEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	clock := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Set(ctx, "ordens:1", []byte("a"), 0))
	require.NoError(t, store.Set(ctx, "ordens:2", []byte("b"), time.Hour))

	clock = clock.Add(2 * time.Minute)

	_, err := store.Get(ctx, "ordens:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	got, err := store.Get(ctx, "ordens:2")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "ordens:2"))
	_, err = store.Get(ctx, "ordens:2")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStoreEvictionKeepsFreshWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	clock := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Set(ctx, "ordens:1", []byte("old"), 0))
	clock = clock.Add(2 * time.Minute)
	expiredAt := clock

	// a writer refreshes the key between the expired read and the eviction
	require.NoError(t, store.Set(ctx, "ordens:1", []byte("new"), 0))
	store.evictExpired("ordens:1", expiredAt)

	got, err := store.Get(ctx, "ordens:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)

	clock = clock.Add(2 * time.Minute)
	store.evictExpired("ordens:1", clock)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreRejectsEmptyKey(t *testing.T) {
	assert.Error(t, NewMemoryStore(0).Set(context.Background(), "", []byte("x"), 0))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	type payload struct {
		Numero int    `json:"numero"`
		Status string `json:"status"`
	}

	require.NoError(t, SetJSON(ctx, store, "ordens:x", payload{Numero: 3, Status: "EM_ANDAMENTO"}, 0))

	var got payload
	require.NoError(t, GetJSON(ctx, store, "ordens:x", &got))
	assert.Equal(t, payload{Numero: 3, Status: "EM_ANDAMENTO"}, got)

	assert.ErrorIs(t, GetJSON(ctx, NewNoopStore(), "ordens:x", &got), ErrCacheMiss)

	require.NoError(t, store.Set(ctx, "ordens:bad", []byte("{"), 0))
	assert.Error(t, GetJSON(ctx, store, "ordens:bad", &got))
}
