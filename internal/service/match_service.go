package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/repository"
	"github.com/strikehub/strikehub-backend/pkg/cache"
	"go.uber.org/zap"
)

// 커스텀 매치 타입별 정원
var customMatchSizes = map[string]int{
	"standard": 10,
	"wingman":  4,
}

// MatchStore 매치 저장소 (구현: repository.MatchRepository)
type MatchStore interface {
	FindByID(id string) (*models.Match, error)
	FindActiveByPlayer(playerID string) (*models.Match, error)
	FindByPlayer(playerID string, limit, offset int) ([]*models.Match, error)
	ListRecent(limit, offset int) ([]*models.Match, error)
	CreateCustom(matchType string, maxPlayers int, creatorID, mapName, joinCode string, creatorRole models.PlayerRole) (*models.Match, error)
	AddParticipant(matchID, playerID string, team models.Team, role models.PlayerRole) error
	RemoveParticipant(matchID, playerID string) error
	AddCancelVote(matchID, playerID string) (bool, error)
	CountCancelVotes(matchID string) (int, error)
	Cancel(matchID string) (bool, error)
	Finish(matchID string, winner models.Team, durationSeconds *int, externalMatchID *string, stats []models.ParticipantStats) (bool, error)
	Restart(matchID, newJoinCode string) (bool, error)
}

// MatchService 매치 상태 머신
// pending → in_progress → finished, pending|in_progress → cancelled.
// 모든 전이는 저장소의 상태 조건부 UPDATE로 재확인된다 (check-then-write).
type MatchService struct {
	matchRepo     MatchStore
	userRepo      *repository.UserRepository
	ratingService *RatingService
	settings      *SettingsService
	statusCache   *cache.StatusCache
	notifier      *Notifier
	logger        *zap.Logger
}

func NewMatchService(
	matchRepo MatchStore,
	userRepo *repository.UserRepository,
	ratingService *RatingService,
	settings *SettingsService,
	statusCache *cache.StatusCache,
	notifier *Notifier,
	logger *zap.Logger,
) *MatchService {
	return &MatchService{
		matchRepo:     matchRepo,
		userRepo:      userRepo,
		ratingService: ratingService,
		settings:      settings,
		statusCache:   statusCache,
		notifier:      notifier,
		logger:        logger,
	}
}

// CreateCustom 커스텀 매치 생성 (pending, 정원까지 참가 대기)
func (s *MatchService) CreateCustom(ctx context.Context, creatorID, matchType string) (*models.Match, error) {
	if !s.settings.Get(ctx).CustomMatchesEnabled {
		return nil, ErrCustomMatchesDisabled
	}

	maxPlayers, ok := customMatchSizes[matchType]
	if !ok {
		return nil, ErrInvalidInput
	}

	creator, err := s.userRepo.FindByID(creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}
	if creator == nil {
		return nil, ErrUserNotFound
	}

	active, err := s.matchRepo.FindActiveByPlayer(creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active match: %w", err)
	}
	if active != nil {
		return nil, ErrAlreadyInMatch
	}

	match, err := s.matchRepo.CreateCustom(
		matchType,
		maxPlayers,
		creatorID,
		models.MapPool[0],
		uuid.New().String()[:8],
		creator.PrimaryRole,
	)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Custom match created",
		zap.String("matchId", match.ID),
		zap.String("creatorId", creatorID),
		zap.String("type", matchType))

	return match, nil
}

// Join 커스텀 매치 참가 (pending 전용)
// 인원이 적은 팀에 배정하고, 동률이면 레드팀.
func (s *MatchService) Join(ctx context.Context, matchID, playerID string) (*models.Match, error) {
	match, err := s.matchRepo.FindByID(matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	if match.Status != models.MatchStatusPending {
		return nil, ErrMatchNotPending
	}
	if match.HasParticipant(playerID) {
		return nil, ErrAlreadyParticipant
	}
	if len(match.Participants) >= match.MaxPlayers {
		return nil, ErrMatchFull
	}

	active, err := s.matchRepo.FindActiveByPlayer(playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active match: %w", err)
	}
	if active != nil {
		return nil, ErrAlreadyInMatch
	}

	user, err := s.userRepo.FindByID(playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	team := models.TeamRed
	red, blue := match.TeamCounts()
	if blue < red {
		team = models.TeamBlue
	}

	if err := s.matchRepo.AddParticipant(matchID, playerID, team, user.PrimaryRole); err != nil {
		return nil, err
	}

	s.logger.Info("Player joined custom match",
		zap.String("matchId", matchID),
		zap.String("playerId", playerID),
		zap.String("team", string(team)))

	return s.matchRepo.FindByID(matchID)
}

// Leave 커스텀 매치 탈퇴 (pending 전용, 생성자는 취소로만 나갈 수 있음)
func (s *MatchService) Leave(ctx context.Context, matchID, playerID string) error {
	match, err := s.matchRepo.FindByID(matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return ErrMatchNotFound
	}

	if match.Status != models.MatchStatusPending {
		return ErrMatchNotPending
	}
	if !match.HasParticipant(playerID) {
		return ErrNotParticipant
	}
	if match.CreatorID == playerID {
		return ErrCreatorCannotLeave
	}

	return s.matchRepo.RemoveParticipant(matchID, playerID)
}

// Cancel 매치 취소
// 생성자는 pending에서만, 관리자는 pending/in_progress 어디서든 가능.
func (s *MatchService) Cancel(ctx context.Context, matchID, callerID string, isAdmin bool) error {
	match, err := s.matchRepo.FindByID(matchID)
	if err != nil {
		return err
	}
	if match == nil {
		return ErrMatchNotFound
	}

	if !isAdmin {
		if match.CreatorID != callerID {
			return ErrNotMatchCreator
		}
		if match.Status != models.MatchStatusPending {
			return ErrMatchNotPending
		}
	}

	cancelled, err := s.matchRepo.Cancel(matchID)
	if err != nil {
		return err
	}
	if !cancelled {
		return ErrMatchAlreadyResolved
	}

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	s.notifier.MatchCancelled(match)

	s.logger.Info("Match cancelled",
		zap.String("matchId", matchID),
		zap.String("callerId", callerID),
		zap.Bool("admin", isAdmin))

	return nil
}

// VetoResult 거부권 집계
type VetoResult struct {
	Votes     int  `json:"votes"`
	Required  int  `json:"required"`
	Cancelled bool `json:"cancelled"`
}

// Veto 참가자의 매치 취소 투표
// 같은 플레이어의 재투표는 집계만 반환하는 no-op.
// 서로 다른 투표자가 floor(정원/2)+1명에 도달하는 즉시 매치가 취소된다.
func (s *MatchService) Veto(ctx context.Context, matchID, playerID string) (*VetoResult, error) {
	match, err := s.matchRepo.FindByID(matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	if !match.IsOpen() {
		return nil, ErrMatchAlreadyResolved
	}
	if !match.HasParticipant(playerID) {
		return nil, ErrNotParticipant
	}

	added, err := s.matchRepo.AddCancelVote(matchID, playerID)
	if err != nil {
		return nil, err
	}

	votes, err := s.matchRepo.CountCancelVotes(matchID)
	if err != nil {
		return nil, err
	}

	required := models.CancelThreshold(match.MaxPlayers)
	result := &VetoResult{Votes: votes, Required: required}

	if added {
		s.logger.Info("Cancel vote cast",
			zap.String("matchId", matchID),
			zap.String("playerId", playerID),
			zap.Int("votes", votes),
			zap.Int("required", required))
	}

	if votes >= required {
		cancelled, err := s.matchRepo.Cancel(matchID)
		if err != nil {
			return nil, err
		}
		if cancelled {
			result.Cancelled = true
			s.notifier.MatchCancelled(match)
			if err := s.statusCache.Invalidate(ctx); err != nil {
				s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
			}
			s.logger.Info("Match cancelled by veto",
				zap.String("matchId", matchID),
				zap.Int("votes", votes))
		} else {
			// 다른 요청이 먼저 종결시켰다. 취소가 아니라 종료였을 수도 있으므로
			// 실제 상태를 다시 읽어 보고한다.
			current, err := s.matchRepo.FindByID(matchID)
			if err != nil {
				return nil, err
			}
			result.Cancelled = current != nil && current.Status == models.MatchStatusCancelled
		}
	}

	return result, nil
}

// Finish 매치 종료 (관리자 또는 외부 결과 대조기)
// 상태 조건부 UPDATE가 true를 반환한 뒤에만 레이팅을 반영한다.
// 이것이 레이팅 이중 반영을 막는 유일한 관문이다.
func (s *MatchService) Finish(
	ctx context.Context,
	matchID string,
	winner models.Team,
	durationSeconds *int,
	externalMatchID *string,
	stats []models.ParticipantStats,
) (*models.Match, error) {
	if winner != models.TeamRed && winner != models.TeamBlue {
		return nil, ErrInvalidWinner
	}

	match, err := s.matchRepo.FindByID(matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	finished, err := s.matchRepo.Finish(matchID, winner, durationSeconds, externalMatchID, stats)
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, ErrMatchAlreadyResolved
	}

	// 참가자별 레이팅 반영 (플레이어당 독립 단일 행 갱신)
	for _, p := range match.Participants {
		if err := s.ratingService.ApplyResult(p.PlayerID, p.Team == winner); err != nil {
			s.logger.Error("Failed to apply rating",
				zap.String("matchId", matchID),
				zap.String("playerId", p.PlayerID),
				zap.Error(err))
		}
	}

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	s.notifier.MatchFinished(match, winner)

	s.logger.Info("Match finished",
		zap.String("matchId", matchID),
		zap.String("winner", string(winner)))

	return s.matchRepo.FindByID(matchID)
}

// Restart 매치를 pending으로 리셋 (관리자 전용)
// 참가자는 유지되고 거부권 기록은 비워진다.
func (s *MatchService) Restart(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.matchRepo.FindByID(matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	restarted, err := s.matchRepo.Restart(matchID, uuid.New().String()[:8])
	if err != nil {
		return nil, err
	}
	if !restarted {
		return nil, ErrMatchAlreadyResolved
	}

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	s.logger.Info("Match restarted", zap.String("matchId", matchID))

	return s.matchRepo.FindByID(matchID)
}

// GetByID 매치 조회
func (s *MatchService) GetByID(id string) (*models.Match, error) {
	match, err := s.matchRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	return match, nil
}

// HistoryByPlayer 플레이어의 매치 이력
func (s *MatchService) HistoryByPlayer(playerID string, page, pageSize int) ([]*models.Match, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	matches, err := s.matchRepo.FindByPlayer(playerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}

	return matches, nil
}

// ListRecent 최근 매치 목록
func (s *MatchService) ListRecent(page, pageSize int) ([]*models.Match, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	matches, err := s.matchRepo.ListRecent(pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	return matches, nil
}
