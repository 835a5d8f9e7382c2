package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/websocket"
	"github.com/strikehub/strikehub-backend/pkg/cache"
	"github.com/strikehub/strikehub-backend/pkg/distributed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

// fakeQueueStore 메모리 큐 저장소. 호출 기록을 남겨 형성 경로를 검증한다.
type fakeQueueStore struct {
	entries      map[string]*models.QueueEntry
	removed      []string
	removedMany  []string
	oldestNCalls int
}

func newFakeQueueStore(queueType models.QueueType, playerIDs ...string) *fakeQueueStore {
	entries := make(map[string]*models.QueueEntry, len(playerIDs))
	for _, id := range playerIDs {
		entries[id] = &models.QueueEntry{ID: "entry-" + id, PlayerID: id, QueueType: queueType, JoinedAt: time.Now()}
	}
	return &fakeQueueStore{entries: entries}
}

func (f *fakeQueueStore) Insert(playerID string, queueType models.QueueType) (*models.QueueEntry, error) {
	entry := &models.QueueEntry{ID: "entry-" + playerID, PlayerID: playerID, QueueType: queueType, JoinedAt: time.Now()}
	f.entries[playerID] = entry
	return entry, nil
}

func (f *fakeQueueStore) FindByPlayer(playerID string) (*models.QueueEntry, error) {
	return f.entries[playerID], nil
}

func (f *fakeQueueStore) CountFor(queueType models.QueueType) (int, error) {
	count := 0
	for _, e := range f.entries {
		if e.QueueType == queueType {
			count++
		}
	}
	return count, nil
}

func (f *fakeQueueStore) OldestN(queueType models.QueueType, n int) ([]models.QueueEntry, error) {
	f.oldestNCalls++
	var out []models.QueueEntry
	for _, e := range f.entries {
		if e.QueueType == queueType && len(out) < n {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeQueueStore) WaitingPlayers(queueType models.QueueType) ([]models.QueueWaiter, error) {
	var out []models.QueueWaiter
	for _, e := range f.entries {
		if e.QueueType == queueType {
			out = append(out, models.QueueWaiter{PlayerID: e.PlayerID, JoinedAt: e.JoinedAt})
		}
	}
	return out, nil
}

func (f *fakeQueueStore) Remove(playerID string) error {
	delete(f.entries, playerID)
	f.removed = append(f.removed, playerID)
	return nil
}

func (f *fakeQueueStore) RemoveMany(playerIDs []string) error {
	for _, id := range playerIDs {
		delete(f.entries, id)
	}
	f.removedMany = append(f.removedMany, playerIDs...)
	return nil
}

func newQueueServiceForTest(t *testing.T, client *redis.Client, store *fakeQueueStore) (*QueueService, *distributed.PendingAcceptCoordinator) {
	pending := distributed.NewPendingAcceptCoordinator(client)
	locks := distributed.NewFormationLockManager(client)
	statusCache := cache.NewStatusCache(client, time.Second)
	notifier := NewNotifier(websocket.NewHub(zap.NewNop()))

	svc := NewQueueService(
		store, nil, nil,
		pending, locks, statusCache,
		nil, notifier, zap.NewNop(),
		30*time.Second, 10*time.Second,
	)
	return svc, pending
}

// 수락과 형성 사이에 큐를 떠난 후보가 있으면 핸드셰이크가 해산되고
// 매치는 만들어지지 않는다. 수락하지 않은 대기자가 대신 편성되어서는 안 된다.
func TestQueueService_Accept_RosterLeftBeforeFormation(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	// p1은 수락 후 큐를 떠났고, p11이 새로 대기 중이다
	store := newFakeQueueStore(models.QueueTypeWingman, "p2", "p3", "p4", "p11")
	svc, pending := newQueueServiceForTest(t, client, store)
	ctx := context.Background()

	roster := []string{"p1", "p2", "p3", "p4"}
	_, opened, err := pending.TryOpen(ctx, "wingman", roster, 30*time.Second)
	require.NoError(t, err)
	require.True(t, opened)

	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := pending.SetResponse(ctx, "wingman", id, true)
		require.NoError(t, err)
	}

	// 마지막 수락이 형성을 트리거하지만, p1이 없으므로 해산으로 끝나야 한다.
	// matchRepo가 nil이므로 매치 생성에 도달하면 패닉한다.
	require.NoError(t, svc.Accept(ctx, "p4", true))

	doc, err := pending.Get(ctx, "wingman")
	require.NoError(t, err)
	assert.Nil(t, doc)

	// 형성은 수락 로스터로만 이루어진다. 대기열 재조회로 채워 넣지 않는다.
	assert.Zero(t, store.oldestNCalls)
	assert.Empty(t, store.removed)
	assert.Empty(t, store.removedMany)
	assert.Contains(t, store.entries, "p11")
}

// 거부는 거부자만 큐에서 퇴출하고 나머지는 풀에 남긴다
func TestQueueService_Accept_DeclineEvictsOnlyDecliner(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	store := newFakeQueueStore(models.QueueTypeWingman, "p1", "p2", "p3", "p4")
	svc, pending := newQueueServiceForTest(t, client, store)
	ctx := context.Background()

	_, opened, err := pending.TryOpen(ctx, "wingman", []string{"p1", "p2", "p3", "p4"}, 30*time.Second)
	require.NoError(t, err)
	require.True(t, opened)

	require.NoError(t, svc.Accept(ctx, "p2", false))

	assert.Equal(t, []string{"p2"}, store.removed)
	assert.Contains(t, store.entries, "p1")
	assert.Contains(t, store.entries, "p3")
	assert.Contains(t, store.entries, "p4")

	doc, err := pending.Get(ctx, "wingman")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

// 마감 경과 시 수락자는 풀에 남고 미응답자만 퇴출된다
func TestQueueService_Accept_ExpiryEvictsNonAcceptors(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	store := newFakeQueueStore(models.QueueTypeWingman, "p1", "p2", "p3", "p4")
	svc, pending := newQueueServiceForTest(t, client, store)
	ctx := context.Background()

	_, opened, err := pending.TryOpen(ctx, "wingman", []string{"p1", "p2", "p3", "p4"}, time.Millisecond)
	require.NoError(t, err)
	require.True(t, opened)

	_, err = pending.SetResponse(ctx, "wingman", "p1", true)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	err = svc.Accept(ctx, "p2", true)
	assert.ErrorIs(t, err, ErrHandshakeExpired)

	assert.ElementsMatch(t, []string{"p2", "p3", "p4"}, store.removedMany)
	assert.Contains(t, store.entries, "p1")

	doc, err := pending.Get(ctx, "wingman")
	require.NoError(t, err)
	assert.Nil(t, doc)
}
