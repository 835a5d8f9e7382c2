package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter Redis 기반 분산 Rate Limiter (Token Bucket 알고리즘)
// 핸들러 계층이 무상태로 수평 확장되므로 인프로세스 리미터 대신 Redis를 쓴다.
type RedisRateLimiter struct {
	client       *redis.Client
	keyPrefix    string
	defaultLimit int
	defaultTTL   time.Duration
}

// NewRedisRateLimiter Redis 기반 Rate Limiter 생성
func NewRedisRateLimiter(client *redis.Client, defaultLimit int, defaultTTL time.Duration) *RedisRateLimiter {
	if defaultLimit <= 0 {
		defaultLimit = 60
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}

	return &RedisRateLimiter{
		client:       client,
		keyPrefix:    "ratelimit:",
		defaultLimit: defaultLimit,
		defaultTTL:   defaultTTL,
	}
}

// Allow 요청 허용 여부 확인
// key: Rate Limit 대상 식별자 (예: userID, IP)
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	if window <= 0 {
		window = r.defaultTTL
	}

	redisKey := r.keyPrefix + key
	now := time.Now().Unix()

	// Lua 스크립트로 원자적 토큰 리필 + 소비
	script := redis.NewScript(`
		local key = KEYS[1]
		local limit = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])
		local now = tonumber(ARGV[3])

		local tokens_key = key .. ":tokens"
		local timestamp_key = key .. ":timestamp"

		local tokens = tonumber(redis.call('GET', tokens_key))
		local last_update = tonumber(redis.call('GET', timestamp_key))

		if tokens == nil then
			tokens = limit
			last_update = now
		end

		local elapsed = now - last_update
		local refill_rate = limit / window
		local new_tokens = math.min(limit, tokens + (elapsed * refill_rate))

		local allowed = 0
		if new_tokens >= 1 then
			new_tokens = new_tokens - 1
			allowed = 1
		end

		redis.call('SET', tokens_key, new_tokens, 'EX', window * 2)
		redis.call('SET', timestamp_key, now, 'EX', window * 2)

		return allowed
	`)

	allowed, err := script.Run(ctx, r.client, []string{redisKey}, limit, int(window.Seconds()), now).Int()
	if err != nil {
		return false, fmt.Errorf("redis script execution failed: %w", err)
	}

	return allowed == 1, nil
}
