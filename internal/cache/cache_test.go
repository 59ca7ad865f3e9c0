package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := newRedisCache([]string{mr.Addr()})
	assert.NoError(t, err)
	return c
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		AccountID string
		Balance   int64
	}

	in := payload{AccountID: "acc_1", Balance: 70000}
	assert.NoError(t, c.Set(ctx, "account:acc_1", in, time.Minute))

	var out payload
	assert.NoError(t, c.Get(ctx, "account:acc_1", &out))
	assert.Equal(t, in, out)
}

func TestCacheMissIsNotAnError(t *testing.T) {
	c := newTestCache(t)

	var out string
	err := c.Get(context.Background(), "absent-key", &out)
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestCacheDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))

	var out string
	assert.NoError(t, c.Get(ctx, "k", &out))
	assert.Empty(t, out)
}
