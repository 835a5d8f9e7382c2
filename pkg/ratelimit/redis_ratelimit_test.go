package ratelimit

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

func TestRedisRateLimiter_Allow(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	limiter := NewRedisRateLimiter(client, 60, time.Minute)
	ctx := context.Background()

	// limit 3, 60초 윈도우. 처음 3번은 허용
	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	// 4번째는 거부
	allowed, err := limiter.Allow(ctx, "user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// 다른 키는 독립적인 버킷
	allowed, err = limiter.Allow(ctx, "user:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Refill(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	limiter := NewRedisRateLimiter(client, 60, time.Minute)
	ctx := context.Background()

	// limit 2, 2초 윈도우. 버킷 소진
	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "user:refill", 2, 2*time.Second)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "user:refill", 2, 2*time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)

	// 리필 후 다시 허용
	time.Sleep(1500 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "user:refill", 2, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}
