package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/service"
	"github.com/strikehub/strikehub-backend/internal/websocket"
	"github.com/strikehub/strikehub-backend/pkg/cache"
	"github.com/strikehub/strikehub-backend/pkg/distributed"
	"github.com/strikehub/strikehub-backend/pkg/logger"
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

// memQueueStore 핸들러 응답 코드 검증용 최소 큐 저장소
type memQueueStore struct {
	entries map[string]*models.QueueEntry
}

func (m *memQueueStore) Insert(playerID string, queueType models.QueueType) (*models.QueueEntry, error) {
	entry := &models.QueueEntry{ID: "entry-" + playerID, PlayerID: playerID, QueueType: queueType, JoinedAt: time.Now()}
	m.entries[playerID] = entry
	return entry, nil
}

func (m *memQueueStore) FindByPlayer(playerID string) (*models.QueueEntry, error) {
	return m.entries[playerID], nil
}

func (m *memQueueStore) CountFor(queueType models.QueueType) (int, error) {
	return len(m.entries), nil
}

func (m *memQueueStore) OldestN(queueType models.QueueType, n int) ([]models.QueueEntry, error) {
	return nil, nil
}

func (m *memQueueStore) WaitingPlayers(queueType models.QueueType) ([]models.QueueWaiter, error) {
	return nil, nil
}

func (m *memQueueStore) Remove(playerID string) error {
	delete(m.entries, playerID)
	return nil
}

func (m *memQueueStore) RemoveMany(playerIDs []string) error {
	for _, id := range playerIDs {
		delete(m.entries, id)
	}
	return nil
}

func newQueueHandlerForTest(t *testing.T, client *redis.Client) (*QueueHandler, *distributed.PendingAcceptCoordinator) {
	t.Helper()
	logger.Init("development", "error")
	gin.SetMode(gin.TestMode)

	store := &memQueueStore{entries: map[string]*models.QueueEntry{}}
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		_, err := store.Insert(id, models.QueueTypeWingman)
		require.NoError(t, err)
	}

	pending := distributed.NewPendingAcceptCoordinator(client)
	locks := distributed.NewFormationLockManager(client)
	statusCache := cache.NewStatusCache(client, time.Second)
	notifier := service.NewNotifier(websocket.NewHub(zap.NewNop()))

	svc := service.NewQueueService(
		store, nil, nil,
		pending, locks, statusCache,
		nil, notifier, zap.NewNop(),
		30*time.Second, 10*time.Second,
	)
	return NewQueueHandler(svc), pending
}

func performAccept(handler *QueueHandler, userID string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/queue/accept", bytes.NewBufferString(`{"accept":true}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("userId", userID)

	handler.Accept(c)
	return recorder
}

// 수락할 핸드셰이크가 없으면 400
func TestQueueHandler_Accept_NoPendingIsBadRequest(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	handler, _ := newQueueHandlerForTest(t, client)

	recorder := performAccept(handler, "p1")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

// 마감이 지난 핸드셰이크에 대한 수락도 400
func TestQueueHandler_Accept_ExpiredIsBadRequest(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	handler, pending := newQueueHandlerForTest(t, client)
	ctx := context.Background()

	_, opened, err := pending.TryOpen(ctx, "wingman", []string{"p1", "p2", "p3", "p4"}, time.Millisecond)
	require.NoError(t, err)
	require.True(t, opened)

	time.Sleep(10 * time.Millisecond)

	recorder := performAccept(handler, "p1")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
