package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/pkg/optional"
)

func cachedOrder(t *testing.T, store cache.Store, id string) *entity.Order {
	t.Helper()
	var o entity.Order
	err := cache.GetJSON(context.Background(), store, "ordens:"+id, &o)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	require.NoError(t, err)
	return &o
}

func TestCacheFollowsWrites(t *testing.T) {
	env := newTestEnv(t)
	store := cache.NewMemoryStore(time.Minute)
	env.svc.cache = store
	ctx := context.Background()

	created, err := env.svc.Create(ctx, scenarioInput())
	require.NoError(t, err)
	cached := cachedOrder(t, store, created.ID)
	require.NotNil(t, cached)
	assert.Equal(t, "120.00", cached.Total.StringFixed(2))

	_, err = env.svc.Update(ctx, created.ID, UpdateInput{Discount: optional.Of(dec("0"))})
	require.NoError(t, err)
	cached = cachedOrder(t, store, created.ID)
	require.NotNil(t, cached)
	assert.Equal(t, "130.00", cached.Total.StringFixed(2))

	got, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "130.00", got.Total.StringFixed(2))
	require.Len(t, got.ServiceItems, 1)

	require.NoError(t, env.svc.Delete(ctx, created.ID))
	assert.Nil(t, cachedOrder(t, store, created.ID))
}
