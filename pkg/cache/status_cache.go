package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusCache 큐 상태 집계의 짧은 TTL 읽기 캐시.
// 폴링 부하를 흡수하는 용도라 약간 낡은 값은 허용되지만,
// 큐/매치 상태를 바꾸는 모든 경로에서 Invalidate를 호출해야 한다.
type StatusCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewStatusCache StatusCache 생성
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &StatusCache{
		client: client,
		key:    "queue:status",
		ttl:    ttl,
	}
}

// Get 캐시 조회. 키가 없으면 (false, nil).
func (c *StatusCache) Get(ctx context.Context, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get status cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal status cache: %w", err)
	}

	return true, nil
}

// Set 캐시 저장
func (c *StatusCache) Set(ctx context.Context, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal status cache: %w", err)
	}

	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set status cache: %w", err)
	}

	return nil
}

// Invalidate 캐시 무효화 (멱등)
func (c *StatusCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate status cache: %w", err)
	}
	return nil
}
