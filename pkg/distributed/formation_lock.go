package distributed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

// FormationLock 큐별 매치 생성 임계 구역을 보호하는 분산 락.
// 같은 큐에 대해 동시에 들어온 형성 시도 중 하나만 로스터 확정에 도달한다.
type FormationLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// FormationLockManager 형성 락 관리자
type FormationLockManager struct {
	client    *redis.Client
	keyPrefix string
}

// NewFormationLockManager FormationLockManager 생성
func NewFormationLockManager(client *redis.Client) *FormationLockManager {
	return &FormationLockManager{
		client:    client,
		keyPrefix: "formation_lock:",
	}
}

// Acquire 형성 락 획득 시도 (SET NX)
// 경합 시 ErrLockNotAcquired를 즉시 반환하고, 호출자는 재시도 없이 포기한다.
// TTL은 보유자가 임계 구역 도중 죽었을 때를 위한 안전망이다.
func (m *FormationLockManager) Acquire(ctx context.Context, queueType, token string, ttl time.Duration) (*FormationLock, error) {
	key := m.keyPrefix + queueType

	success, err := m.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire formation lock: %w", err)
	}

	if !success {
		return nil, ErrLockNotAcquired
	}

	return &FormationLock{
		client: m.client,
		key:    key,
		token:  token,
		ttl:    ttl,
	}, nil
}

// Release 락 해제 (Lua 스크립트로 안전하게)
// TTL이 만료되어 다른 보유자가 생긴 경우 남의 락을 지우지 않도록 토큰을 비교한다.
func (l *FormationLock) Release(ctx context.Context) error {
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	result, err := script.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release formation lock: %w", err)
	}

	if result == 0 {
		return ErrLockNotHeld
	}

	return nil
}

// IsHeld 락이 현재 유효한지 확인
func (l *FormationLock) IsHeld(ctx context.Context) (bool, error) {
	value, err := l.client.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return value == l.token, nil
}
