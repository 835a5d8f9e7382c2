package service

import (
	"context"
	"errors"
	"time"

	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/pkg/tracker"
	"go.uber.org/zap"
)

// MatchHistoryProvider 외부 전적 제공자 (테스트에서 스텁 주입)
type MatchHistoryProvider interface {
	RecentMatches(ctx context.Context, trackerID string, since time.Time) ([]tracker.MatchRecord, error)
}

// ReconcileStore 대조 대상 조회 (구현: repository.MatchRepository)
type ReconcileStore interface {
	ListOpenOlderThan(age time.Duration) ([]*models.Match, error)
	ExternalIDExists(externalMatchID string) (bool, error)
}

// UserFinder 참가자 일괄 조회 (구현: repository.UserRepository)
type UserFinder interface {
	FindByIDs(ids []string) (map[string]*models.User, error)
}

// ResultApplier 대조된 결과를 매치에 반영 (구현: MatchService)
type ResultApplier interface {
	Finish(ctx context.Context, matchID string, winner models.Team, durationSeconds *int, externalMatchID *string, stats []models.ParticipantStats) (*models.Match, error)
}

// ReconcileService 외부 결과 대조기.
// 일정 시간 이상 열려 있는 매치를 주기적으로 돌며, 생성자의 외부 전적에서
// 대응되는 게임을 찾아 매치를 자동 종료한다. 종료 버튼을 누르지 않고
// 흩어진 로비를 정리하는 백그라운드 청소부.
type ReconcileService struct {
	matchRepo    ReconcileStore
	userRepo     UserFinder
	matchService ResultApplier
	provider     MatchHistoryProvider
	interval     time.Duration
	minAge       time.Duration
	logger       *zap.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewReconcileService(
	matchRepo ReconcileStore,
	userRepo UserFinder,
	matchService ResultApplier,
	provider MatchHistoryProvider,
	interval, minAge time.Duration,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		matchRepo:    matchRepo,
		userRepo:     userRepo,
		matchService: matchService,
		provider:     provider,
		interval:     interval,
		minAge:       minAge,
		logger:       logger,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start 대조 루프 시작
func (s *ReconcileService) Start() {
	go func() {
		defer close(s.doneCh)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("Result reconciler started",
			zap.Duration("interval", s.interval),
			zap.Duration("minAge", s.minAge))

		for {
			select {
			case <-s.stopCh:
				s.logger.Info("Result reconciler stopped")
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.interval)
				s.runOnce(ctx)
				cancel()
			}
		}
	}()
}

// Stop 대조 루프 정지 (진행 중인 패스가 끝날 때까지 대기)
func (s *ReconcileService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *ReconcileService) runOnce(ctx context.Context) {
	matches, err := s.matchRepo.ListOpenOlderThan(s.minAge)
	if err != nil {
		s.logger.Error("Failed to list open matches", zap.Error(err))
		return
	}

	for _, match := range matches {
		// 외부 게임은 시작된 매치에만 대응된다
		if match.Status != models.MatchStatusInProgress || match.StartedAt == nil {
			continue
		}

		if err := s.reconcileMatch(ctx, match); err != nil {
			s.logger.Warn("Failed to reconcile match",
				zap.String("matchId", match.ID),
				zap.Error(err))
		}
	}
}

func (s *ReconcileService) reconcileMatch(ctx context.Context, match *models.Match) error {
	playerIDs := make([]string, 0, len(match.Participants))
	for _, p := range match.Participants {
		playerIDs = append(playerIDs, p.PlayerID)
	}

	users, err := s.userRepo.FindByIDs(playerIDs)
	if err != nil {
		return err
	}

	creator := users[match.CreatorID]
	if creator == nil || creator.TrackerID == nil {
		// 생성자의 외부 계정이 연결되지 않은 매치는 대조할 수 없다
		return nil
	}

	var creatorTeam models.Team
	for _, p := range match.Participants {
		if p.PlayerID == match.CreatorID {
			creatorTeam = p.Team
		}
	}

	records, err := s.provider.RecentMatches(ctx, *creator.TrackerID, *match.StartedAt)
	if err != nil {
		return err
	}

	record := s.pickRecord(records, *match.StartedAt)
	if record == nil {
		return nil
	}

	winner := DeriveWinner(creatorTeam, record.Won)
	stats := MapExternalStats(match.Participants, users, record.PlayerStats)

	_, err = s.matchService.Finish(ctx, match.ID, winner, &record.DurationSeconds, &record.ID, stats)
	if errors.Is(err, ErrMatchAlreadyResolved) {
		// 관리자나 다른 인스턴스가 먼저 종결시켰다
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("Match reconciled from tracker",
		zap.String("matchId", match.ID),
		zap.String("externalMatchId", record.ID),
		zap.String("winner", string(winner)))

	return nil
}

// pickRecord 매치 시작 이후 끝난 게임 중 아직 어느 매치에도
// 기록되지 않은 가장 오래된 것을 고른다.
func (s *ReconcileService) pickRecord(records []tracker.MatchRecord, startedAt time.Time) *tracker.MatchRecord {
	var picked *tracker.MatchRecord
	for i := range records {
		r := &records[i]
		if !r.FinishedAt.After(startedAt) {
			continue
		}

		exists, err := s.matchRepo.ExternalIDExists(r.ID)
		if err != nil {
			s.logger.Warn("Failed to check external match id",
				zap.String("externalMatchId", r.ID),
				zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		if picked == nil || r.FinishedAt.Before(picked.FinishedAt) {
			picked = r
		}
	}

	return picked
}

// DeriveWinner 생성자 기준 승패를 팀 기준 승자로 변환 (순수 함수)
func DeriveWinner(creatorTeam models.Team, creatorWon bool) models.Team {
	if creatorWon {
		return creatorTeam
	}
	if creatorTeam == models.TeamRed {
		return models.TeamBlue
	}
	return models.TeamRed
}

// MapExternalStats 외부 스탯(tracker ID 기준)을 참가자 스탯으로 변환.
// 외부 계정이 연결되지 않았거나 기록에 없는 참가자는 건너뛴다.
func MapExternalStats(
	participants []models.Participant,
	users map[string]*models.User,
	external map[string]tracker.PlayerStats,
) []models.ParticipantStats {
	var stats []models.ParticipantStats
	for _, p := range participants {
		user := users[p.PlayerID]
		if user == nil || user.TrackerID == nil {
			continue
		}

		ext, ok := external[*user.TrackerID]
		if !ok {
			continue
		}

		stats = append(stats, models.ParticipantStats{
			PlayerID: p.PlayerID,
			Kills:    ext.Kills,
			Deaths:   ext.Deaths,
			Assists:  ext.Assists,
			Score:    ext.Score,
		})
	}

	return stats
}
