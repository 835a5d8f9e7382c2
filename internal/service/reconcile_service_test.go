package service

import (
	"context"
	"testing"
	"time"

	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeriveWinner(t *testing.T) {
	assert.Equal(t, models.TeamRed, DeriveWinner(models.TeamRed, true))
	assert.Equal(t, models.TeamBlue, DeriveWinner(models.TeamRed, false))
	assert.Equal(t, models.TeamBlue, DeriveWinner(models.TeamBlue, true))
	assert.Equal(t, models.TeamRed, DeriveWinner(models.TeamBlue, false))
}

func strPtr(s string) *string { return &s }

func TestMapExternalStats(t *testing.T) {
	participants := []models.Participant{
		{PlayerID: "u1", Team: models.TeamRed},
		{PlayerID: "u2", Team: models.TeamRed},
		{PlayerID: "u3", Team: models.TeamBlue},
	}

	users := map[string]*models.User{
		"u1": {ID: "u1", TrackerID: strPtr("trk-1")},
		"u2": {ID: "u2"}, // 외부 계정 미연결
		"u3": {ID: "u3", TrackerID: strPtr("trk-3")},
	}

	external := map[string]tracker.PlayerStats{
		"trk-1": {Kills: 24, Deaths: 13, Assists: 5, Score: 71},
		// trk-3은 기록에 없음 (게임에 늦게 합류한 경우 등)
	}

	stats := MapExternalStats(participants, users, external)

	require.Len(t, stats, 1)
	assert.Equal(t, "u1", stats[0].PlayerID)
	assert.Equal(t, 24, stats[0].Kills)
	assert.Equal(t, 13, stats[0].Deaths)
	assert.Equal(t, 5, stats[0].Assists)
	assert.Equal(t, 71, stats[0].Score)
}

type stubReconcileStore struct {
	open     []*models.Match
	recorded map[string]bool
}

func (s *stubReconcileStore) ListOpenOlderThan(age time.Duration) ([]*models.Match, error) {
	return s.open, nil
}

func (s *stubReconcileStore) ExternalIDExists(externalMatchID string) (bool, error) {
	return s.recorded[externalMatchID], nil
}

// stubResultApplier 적용된 외부 게임 ID를 저장소에 기록한다.
// 실제 구현에서는 Finish의 조건부 UPDATE가 external_match_id를 쓰는 것에 해당한다.
type stubResultApplier struct {
	store *stubReconcileStore
	calls int
}

func (a *stubResultApplier) Finish(ctx context.Context, matchID string, winner models.Team, durationSeconds *int, externalMatchID *string, stats []models.ParticipantStats) (*models.Match, error) {
	a.calls++
	a.store.recorded[*externalMatchID] = true
	return &models.Match{ID: matchID, Status: models.MatchStatusFinished}, nil
}

type stubUserFinder struct {
	users map[string]*models.User
}

func (f *stubUserFinder) FindByIDs(ids []string) (map[string]*models.User, error) {
	return f.users, nil
}

type stubHistoryProvider struct {
	records []tracker.MatchRecord
}

func (p *stubHistoryProvider) RecentMatches(ctx context.Context, trackerID string, since time.Time) ([]tracker.MatchRecord, error) {
	return p.records, nil
}

// 같은 외부 게임이 두 번의 패스에서 관측되어도 결과는 한 번만 반영된다
func TestReconcileService_RunOnceIsIdempotent(t *testing.T) {
	startedAt := time.Now().Add(-time.Hour)
	match := &models.Match{
		ID:         "m1",
		Status:     models.MatchStatusInProgress,
		MaxPlayers: 4,
		CreatorID:  "u1",
		StartedAt:  &startedAt,
		Participants: []models.Participant{
			{MatchID: "m1", PlayerID: "u1", Team: models.TeamRed},
			{MatchID: "m1", PlayerID: "u2", Team: models.TeamBlue},
		},
	}

	store := &stubReconcileStore{
		open:     []*models.Match{match},
		recorded: map[string]bool{},
	}
	applier := &stubResultApplier{store: store}
	users := &stubUserFinder{users: map[string]*models.User{
		"u1": {ID: "u1", TrackerID: strPtr("trk-1")},
		"u2": {ID: "u2", TrackerID: strPtr("trk-2")},
	}}
	provider := &stubHistoryProvider{records: []tracker.MatchRecord{
		{
			ID:              "ext-42",
			FinishedAt:      startedAt.Add(30 * time.Minute),
			DurationSeconds: 1800,
			Won:             true,
			PlayerStats: map[string]tracker.PlayerStats{
				"trk-1": {Kills: 20},
				"trk-2": {Kills: 15},
			},
		},
	}}

	svc := NewReconcileService(store, users, applier, provider, time.Minute, 10*time.Minute, zap.NewNop())
	ctx := context.Background()

	svc.runOnce(ctx)
	require.Equal(t, 1, applier.calls)
	assert.True(t, store.recorded["ext-42"])

	// 매치 목록 조회가 종결을 아직 못 본 경우에도 같은 기록이 재적용되지 않는다
	svc.runOnce(ctx)
	assert.Equal(t, 1, applier.calls)
}

// 이미 다른 매치에 기록된 외부 게임은 건너뛰고 다음으로 오래된 게임을 고른다
func TestReconcileService_PickRecordSkipsRecorded(t *testing.T) {
	startedAt := time.Now().Add(-time.Hour)

	store := &stubReconcileStore{recorded: map[string]bool{"ext-1": true}}
	svc := NewReconcileService(store, nil, nil, nil, time.Minute, 10*time.Minute, zap.NewNop())

	records := []tracker.MatchRecord{
		{ID: "ext-0", FinishedAt: startedAt.Add(-time.Minute)}, // 매치 시작 전 종료
		{ID: "ext-1", FinishedAt: startedAt.Add(10 * time.Minute)},
		{ID: "ext-2", FinishedAt: startedAt.Add(20 * time.Minute)},
	}

	picked := svc.pickRecord(records, startedAt)
	require.NotNil(t, picked)
	assert.Equal(t, "ext-2", picked.ID)
}

func TestMapExternalStats_AllLinked(t *testing.T) {
	participants := []models.Participant{
		{PlayerID: "u1", Team: models.TeamRed},
		{PlayerID: "u2", Team: models.TeamBlue},
	}

	users := map[string]*models.User{
		"u1": {ID: "u1", TrackerID: strPtr("trk-1")},
		"u2": {ID: "u2", TrackerID: strPtr("trk-2")},
	}

	external := map[string]tracker.PlayerStats{
		"trk-1": {Kills: 10},
		"trk-2": {Kills: 20},
	}

	stats := MapExternalStats(participants, users, external)

	require.Len(t, stats, 2)
	assert.Equal(t, 10, stats[0].Kills)
	assert.Equal(t, 20, stats[1].Kills)
}
