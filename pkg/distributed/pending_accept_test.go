package distributed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingAccept_TryOpenOnce(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	coordinator := NewPendingAcceptCoordinator(client)
	ctx := context.Background()

	candidates := []string{"p1", "p2", "p3", "p4"}

	doc, opened, err := coordinator.TryOpen(ctx, "wingman", candidates, 30*time.Second)
	require.NoError(t, err)
	require.True(t, opened)
	require.NotNil(t, doc)
	assert.Equal(t, candidates, doc.CandidateIDs)
	assert.True(t, doc.Deadline.After(time.Now()))

	// 이미 열려 있으면 두 번째 개시는 무시된다
	doc2, opened2, err := coordinator.TryOpen(ctx, "wingman", []string{"p9"}, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, opened2)
	assert.Nil(t, doc2)

	// 다른 큐 타입은 독립적으로 열린다
	_, opened3, err := coordinator.TryOpen(ctx, "open", candidates, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, opened3)
}

func TestPendingAccept_Responses(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	coordinator := NewPendingAcceptCoordinator(client)
	ctx := context.Background()

	candidates := []string{"p1", "p2", "p3"}
	_, opened, err := coordinator.TryOpen(ctx, "open", candidates, 30*time.Second)
	require.NoError(t, err)
	require.True(t, opened)

	// 후보가 아닌 플레이어의 응답은 거부된다
	_, err = coordinator.SetResponse(ctx, "open", "stranger", true)
	assert.Equal(t, ErrNoPendingAccept, err)

	// 수락 기록 및 집계
	doc, err := coordinator.SetResponse(ctx, "open", "p1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.AcceptedCount())
	assert.False(t, doc.AllAccepted())

	doc, err = coordinator.SetResponse(ctx, "open", "p2", true)
	require.NoError(t, err)

	// 거부는 NonAcceptors에 포함된다
	doc, err = coordinator.SetResponse(ctx, "open", "p3", false)
	require.NoError(t, err)
	assert.False(t, doc.AllAccepted())
	assert.Equal(t, []string{"p3"}, doc.NonAcceptors())

	// 번복 후 전원 수락
	doc, err = coordinator.SetResponse(ctx, "open", "p3", true)
	require.NoError(t, err)
	assert.True(t, doc.AllAccepted())
	assert.Empty(t, doc.NonAcceptors())
}

func TestPendingAccept_DeleteClearsResponses(t *testing.T) {
	client := setupRedisClient(t)
	defer client.Close()

	coordinator := NewPendingAcceptCoordinator(client)
	ctx := context.Background()

	candidates := []string{"p1", "p2"}
	_, opened, err := coordinator.TryOpen(ctx, "open", candidates, 30*time.Second)
	require.NoError(t, err)
	require.True(t, opened)

	_, err = coordinator.SetResponse(ctx, "open", "p1", true)
	require.NoError(t, err)

	require.NoError(t, coordinator.Delete(ctx, "open"))

	doc, err := coordinator.Get(ctx, "open")
	require.NoError(t, err)
	assert.Nil(t, doc)

	// 새 핸드셰이크는 이전 응답을 물려받지 않는다
	doc, opened, err = coordinator.TryOpen(ctx, "open", candidates, 30*time.Second)
	require.NoError(t, err)
	require.True(t, opened)

	doc, err = coordinator.Get(ctx, "open")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.AcceptedCount())
}

func TestPendingAccept_Expired(t *testing.T) {
	doc := &PendingAccept{
		QueueType:    "open",
		CandidateIDs: []string{"p1", "p2"},
		Accepted:     map[string]bool{"p1": true},
		CreatedAt:    time.Now().Add(-time.Minute),
		Deadline:     time.Now().Add(-30 * time.Second),
	}

	assert.True(t, doc.Expired(time.Now()))
	assert.False(t, doc.Expired(doc.Deadline.Add(-time.Second)))

	// 수락한 p1은 남고 미응답 p2만 퇴출 대상
	assert.Equal(t, []string{"p2"}, doc.NonAcceptors())
}
