package distributed

import (
	"context"
	"fmt"
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

	// 테스트 전 DB 초기화
	client.FlushDB(ctx)

	return client
}

func TestFormationLock_AcquireAndRelease(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewFormationLockManager(client)
	ctx := context.Background()

	// Lock 획득
	lock, err := manager.Acquire(ctx, "open", "token1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	// 같은 큐로 다시 획득 시도 (실패해야 함)
	lock2, err := manager.Acquire(ctx, "open", "token2", 5*time.Second)
	assert.Error(t, err)
	assert.Equal(t, ErrLockNotAcquired, err)
	assert.Nil(t, lock2)

	// 다른 큐는 독립적으로 획득 가능
	lock3, err := manager.Acquire(ctx, "elite", "token3", 5*time.Second)
	assert.NoError(t, err)
	require.NotNil(t, lock3)
	defer lock3.Release(ctx)

	// Lock 해제
	err = lock.Release(ctx)
	assert.NoError(t, err)

	// 해제 후 다시 획득 가능
	lock4, err := manager.Acquire(ctx, "open", "token4", 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, lock4)
	defer lock4.Release(ctx)
}

func TestFormationLock_AutoExpire(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewFormationLockManager(client)
	ctx := context.Background()

	// 1초 TTL로 Lock 획득
	lock, err := manager.Acquire(ctx, "open", "token1", 1*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	// 즉시는 Lock 유지
	held, err := lock.IsHeld(ctx)
	assert.NoError(t, err)
	assert.True(t, held)

	// TTL 만료 대기
	time.Sleep(1500 * time.Millisecond)

	held, err = lock.IsHeld(ctx)
	assert.NoError(t, err)
	assert.False(t, held)

	// 새 토큰으로 획득 가능
	lock2, err := manager.Acquire(ctx, "open", "token2", 5*time.Second)
	assert.NoError(t, err)
	require.NotNil(t, lock2)
	defer lock2.Release(ctx)
}

func TestFormationLock_SafeRelease(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewFormationLockManager(client)
	ctx := context.Background()

	// token1이 Lock 획득
	lock1, err := manager.Acquire(ctx, "open", "token1", 1*time.Second)
	require.NoError(t, err)

	// Lock 만료 대기
	time.Sleep(1100 * time.Millisecond)

	// token2가 Lock 획득
	lock2, err := manager.Acquire(ctx, "open", "token2", 5*time.Second)
	require.NoError(t, err)
	defer lock2.Release(ctx)

	// token1이 Release 시도 (다른 보유자 Lock이므로 실패)
	err = lock1.Release(ctx)
	assert.Error(t, err)
	assert.Equal(t, ErrLockNotHeld, err)

	// token2의 Lock은 여전히 유효
	held, err := lock2.IsHeld(ctx)
	assert.NoError(t, err)
	assert.True(t, held)
}

func TestFormationLock_ConcurrentAcquire(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	manager := NewFormationLockManager(client)

	const numGoroutines = 10
	successChan := make(chan string, numGoroutines)

	// 10개의 고루틴이 같은 큐의 Lock을 동시에 획득 시도
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			ctx := context.Background()
			token := fmt.Sprintf("token%d", id)

			lock, err := manager.Acquire(ctx, "open", token, 2*time.Second)
			if err == nil {
				successChan <- token
				time.Sleep(100 * time.Millisecond)
				lock.Release(ctx)
			}
		}(i)
	}

	time.Sleep(3 * time.Second)
	close(successChan)

	winners := []string{}
	for winner := range successChan {
		winners = append(winners, winner)
	}

	// 정확히 1개 토큰만 Lock을 획득해야 함
	assert.Equal(t, 1, len(winners), "Only one holder should acquire the lock")
}
