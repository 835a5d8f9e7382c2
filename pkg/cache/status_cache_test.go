package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 테스트용 DB
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available:", err)
	}

	client.FlushDB(ctx)

	return client
}

type statusFixture struct {
	QueueType string `json:"queueType"`
	Waiting   int    `json:"waiting"`
}

func TestStatusCache_SetAndGet(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	cache := NewStatusCache(client, 5*time.Second)
	ctx := context.Background()

	// 빈 캐시는 miss
	var out []statusFixture
	hit, err := cache.Get(ctx, &out)
	require.NoError(t, err)
	assert.False(t, hit)

	value := []statusFixture{{QueueType: "open", Waiting: 7}}
	require.NoError(t, cache.Set(ctx, value))

	hit, err = cache.Get(ctx, &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, value, out)
}

func TestStatusCache_TTLExpiry(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	cache := NewStatusCache(client, 1*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, []statusFixture{{QueueType: "open", Waiting: 1}}))

	time.Sleep(1500 * time.Millisecond)

	var out []statusFixture
	hit, err := cache.Get(ctx, &out)
	require.NoError(t, err)
	assert.False(t, hit, "cache should expire after TTL")
}

func TestStatusCache_Invalidate(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	cache := NewStatusCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, []statusFixture{{QueueType: "elite", Waiting: 3}}))
	require.NoError(t, cache.Invalidate(ctx))

	var out []statusFixture
	hit, err := cache.Get(ctx, &out)
	require.NoError(t, err)
	assert.False(t, hit)

	// 빈 캐시에 대한 무효화도 오류 없이 지나간다
	assert.NoError(t, cache.Invalidate(ctx))
}
