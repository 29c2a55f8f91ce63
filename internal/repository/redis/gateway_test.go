package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-batch-service/internal/entity"
	"article-batch-service/internal/repository/redis"
	"article-batch-service/internal/storage"
)

func newGateway(t *testing.T) (*redis.Gateway, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.NewGateway(rdb), mr
}

func TestGateway_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	gw, mr := newGateway(t)

	_, ok, err := gw.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, gw.Set(ctx, "k", "v1"))
	v, ok, err := gw.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
	assert.Zero(t, mr.TTL("k"))

	require.NoError(t, gw.Remove(ctx, "k"))
	require.NoError(t, gw.Remove(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestGateway_ServerDown(t *testing.T) {
	ctx := context.Background()
	gw, mr := newGateway(t)
	mr.Close()

	_, _, err := gw.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, gw.Set(ctx, "k", "v"))
}

func TestGateway_BacksStore(t *testing.T) {
	ctx := context.Background()
	gw, mr := newGateway(t)
	st := storage.NewStore(gw, storage.NewKeys(""))

	require.NoError(t, st.SaveRequest(ctx, entity.BatchRequest{Topics: []string{"Solar"}, Count: 2}))
	raw, err := mr.Get("bulkgen:batch:request")
	require.NoError(t, err)
	assert.Contains(t, raw, `"topics":["Solar"]`)

	req, ok, err := st.LoadRequest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, req.Count)

	require.NoError(t, st.Purge(ctx))
	assert.False(t, mr.Exists("bulkgen:batch:request"))
}
