package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/repository"
	"github.com/strikehub/strikehub-backend/pkg/cache"
	"github.com/strikehub/strikehub-backend/pkg/distributed"
	"go.uber.org/zap"
)

// QueueStore 큐 멤버십 저장소 (구현: repository.QueueRepository)
type QueueStore interface {
	Insert(playerID string, queueType models.QueueType) (*models.QueueEntry, error)
	FindByPlayer(playerID string) (*models.QueueEntry, error)
	CountFor(queueType models.QueueType) (int, error)
	OldestN(queueType models.QueueType, n int) ([]models.QueueEntry, error)
	WaitingPlayers(queueType models.QueueType) ([]models.QueueWaiter, error)
	Remove(playerID string) error
	RemoveMany(playerIDs []string) error
}

// QueueService 매칭 큐 참가/이탈/수락 핸드셰이크와 매치 형성을 담당한다.
// 핸들러 계층이 무상태이므로 모든 조정은 Postgres와 Redis의 원자 연산으로 한다.
type QueueService struct {
	queueRepo   QueueStore
	matchRepo   *repository.MatchRepository
	userRepo    *repository.UserRepository
	pending     *distributed.PendingAcceptCoordinator
	locks       *distributed.FormationLockManager
	statusCache *cache.StatusCache
	settings    *SettingsService
	notifier    *Notifier
	logger      *zap.Logger

	acceptDeadline   time.Duration
	formationLockTTL time.Duration
}

func NewQueueService(
	queueRepo QueueStore,
	matchRepo *repository.MatchRepository,
	userRepo *repository.UserRepository,
	pending *distributed.PendingAcceptCoordinator,
	locks *distributed.FormationLockManager,
	statusCache *cache.StatusCache,
	settings *SettingsService,
	notifier *Notifier,
	logger *zap.Logger,
	acceptDeadline, formationLockTTL time.Duration,
) *QueueService {
	return &QueueService{
		queueRepo:        queueRepo,
		matchRepo:        matchRepo,
		userRepo:         userRepo,
		pending:          pending,
		locks:            locks,
		statusCache:      statusCache,
		settings:         settings,
		notifier:         notifier,
		logger:           logger,
		acceptDeadline:   acceptDeadline,
		formationLockTTL: formationLockTTL,
	}
}

// Join 큐 참가
// 자격 검증 → 엔트리 생성 → 캐시 무효화 → 정원 도달 시 핸드셰이크 개시 시도.
func (s *QueueService) Join(ctx context.Context, playerID string, queueType models.QueueType) error {
	if !s.settings.Get(ctx).QueuesEnabled {
		return ErrQueuesDisabled
	}

	cfg, ok := models.GetQueueConfig(queueType)
	if !ok {
		return ErrUnknownQueueType
	}

	user, err := s.userRepo.FindByID(playerID)
	if err != nil {
		return fmt.Errorf("failed to load player: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !cfg.Eligible(user.Rating) {
		return ErrNotEligible
	}

	// 진행 중인 매치가 있으면 참가 불가
	active, err := s.matchRepo.FindActiveByPlayer(playerID)
	if err != nil {
		return fmt.Errorf("failed to check active match: %w", err)
	}
	if active != nil {
		return ErrAlreadyInMatch
	}

	if _, err := s.queueRepo.Insert(playerID, queueType); err != nil {
		if errors.Is(err, repository.ErrDuplicatePlayer) {
			return ErrAlreadyQueued
		}
		return err
	}

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	s.logger.Info("Player joined queue",
		zap.String("playerId", playerID),
		zap.String("queueType", string(queueType)))

	// 정원 확인 및 핸드셰이크 개시. 경합 시 조용히 무시된다.
	s.maybeOpenHandshake(ctx, cfg)

	return nil
}

// maybeOpenHandshake 정원이 찼으면 후보 로스터로 수락 핸드셰이크를 연다.
// TryOpen이 create-if-absent이므로 동시에 정원 도달을 본 요청 중 하나만 연다.
func (s *QueueService) maybeOpenHandshake(ctx context.Context, cfg models.QueueConfig) {
	count, err := s.queueRepo.CountFor(cfg.Type)
	if err != nil {
		s.logger.Error("Failed to count queue", zap.Error(err))
		return
	}
	if count < cfg.RequiredPlayers {
		return
	}

	entries, err := s.queueRepo.OldestN(cfg.Type, cfg.RequiredPlayers)
	if err != nil {
		s.logger.Error("Failed to read formation candidates", zap.Error(err))
		return
	}
	if len(entries) < cfg.RequiredPlayers {
		return
	}

	candidateIDs := make([]string, len(entries))
	for i, e := range entries {
		candidateIDs[i] = e.PlayerID
	}

	doc, opened, err := s.pending.TryOpen(ctx, string(cfg.Type), candidateIDs, s.acceptDeadline)
	if err != nil {
		s.logger.Error("Failed to open pending accept", zap.Error(err))
		return
	}
	if !opened {
		// 다른 요청이 이미 핸드셰이크를 열었다
		return
	}

	s.logger.Info("Pending accept opened",
		zap.String("queueType", string(cfg.Type)),
		zap.Int("candidates", len(candidateIDs)),
		zap.Time("deadline", doc.Deadline))

	s.notifier.MatchFound(candidateIDs, cfg.Type, doc.Deadline)

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}
}

// Leave 큐 이탈 (멱등)
func (s *QueueService) Leave(ctx context.Context, playerID string) error {
	if err := s.queueRepo.Remove(playerID); err != nil {
		return err
	}

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	return nil
}

// StatusResponse 큐 상태 응답
type StatusResponse struct {
	Queues        []models.QueueStatus      `json:"queues"`
	Entry         *models.QueueEntry        `json:"entry,omitempty"` // 호출자 본인의 큐 엔트리
	PendingAccept *models.PendingAcceptView `json:"pendingAccept,omitempty"`
}

// Status 큐 집계 뷰 + 호출자 본인의 수락 대기 상태.
// 집계는 짧은 TTL 캐시로 폴링 부하를 흡수하고, 호출자별 상태는 캐시하지 않는다.
func (s *QueueService) Status(ctx context.Context, playerID string, filter models.QueueType) (*StatusResponse, error) {
	queues, err := s.aggregateStatus(ctx)
	if err != nil {
		return nil, err
	}

	if filter != "" {
		filtered := queues[:0]
		for _, q := range queues {
			if q.QueueType == filter {
				filtered = append(filtered, q)
			}
		}
		queues = filtered
	}

	resp := &StatusResponse{Queues: queues}

	entry, err := s.queueRepo.FindByPlayer(playerID)
	if err != nil {
		return nil, err
	}
	resp.Entry = entry

	view, err := s.callerPendingAccept(ctx, playerID)
	if err != nil {
		return nil, err
	}
	resp.PendingAccept = view

	return resp, nil
}

func (s *QueueService) aggregateStatus(ctx context.Context) ([]models.QueueStatus, error) {
	var cached []models.QueueStatus
	hit, err := s.statusCache.Get(ctx, &cached)
	if err != nil {
		s.logger.Warn("Status cache read failed", zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	queues := make([]models.QueueStatus, 0, len(models.AllQueueTypes()))
	for _, qt := range models.AllQueueTypes() {
		cfg, _ := models.GetQueueConfig(qt)

		waiters, err := s.queueRepo.WaitingPlayers(qt)
		if err != nil {
			return nil, err
		}

		status := models.QueueStatus{
			QueueType: qt,
			Waiting:   len(waiters),
			Required:  cfg.RequiredPlayers,
			Players:   waiters,
		}
		if len(waiters) > 0 {
			// 가장 오래 기다린 플레이어 기준의 단순 추정치
			status.EstimatedWaitSeconds = int(time.Since(waiters[0].JoinedAt).Seconds())
		}
		queues = append(queues, status)
	}

	if err := s.statusCache.Set(ctx, queues); err != nil {
		s.logger.Warn("Status cache write failed", zap.Error(err))
	}

	return queues, nil
}

// callerPendingAccept 호출자가 속한 핸드셰이크 조회. 마감이 지났으면 즉시 해산시킨다.
func (s *QueueService) callerPendingAccept(ctx context.Context, playerID string) (*models.PendingAcceptView, error) {
	for _, qt := range models.AllQueueTypes() {
		doc, err := s.pending.Get(ctx, string(qt))
		if err != nil {
			return nil, err
		}
		if doc == nil || !doc.Contains(playerID) {
			continue
		}

		if doc.Expired(time.Now()) {
			if err := s.dissolveExpired(ctx, doc); err != nil {
				return nil, err
			}
			continue
		}

		view := &models.PendingAcceptView{
			QueueType: qt,
			Deadline:  doc.Deadline,
			Accepted:  doc.AcceptedCount(),
			Required:  len(doc.CandidateIDs),
		}
		if answer, ok := doc.Accepted[playerID]; ok {
			answered := answer
			view.CallerAnswer = &answered
		}
		return view, nil
	}

	return nil, nil
}

// Accept 수락/거부 응답 처리
// 거부 또는 마감 경과는 핸드셰이크를 해산시키고 미응답자를 큐에서 퇴출한다.
// 전원 수락 시 매치 형성으로 넘어간다.
func (s *QueueService) Accept(ctx context.Context, playerID string, accept bool) error {
	doc, queueType, err := s.findCallerHandshake(ctx, playerID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNoPendingAccept
	}

	if doc.Expired(time.Now()) {
		if err := s.dissolveExpired(ctx, doc); err != nil {
			return err
		}
		return ErrHandshakeExpired
	}

	if !accept {
		return s.handleDecline(ctx, doc, playerID)
	}

	updated, err := s.pending.SetResponse(ctx, string(queueType), playerID, true)
	if err != nil {
		if errors.Is(err, distributed.ErrNoPendingAccept) {
			return ErrNoPendingAccept
		}
		return err
	}

	if !updated.AllAccepted() {
		return nil
	}

	cfg, _ := models.GetQueueConfig(queueType)
	return s.formMatch(ctx, cfg, updated.CandidateIDs)
}

func (s *QueueService) findCallerHandshake(ctx context.Context, playerID string) (*distributed.PendingAccept, models.QueueType, error) {
	for _, qt := range models.AllQueueTypes() {
		doc, err := s.pending.Get(ctx, string(qt))
		if err != nil {
			return nil, "", err
		}
		if doc != nil && doc.Contains(playerID) {
			return doc, qt, nil
		}
	}
	return nil, "", nil
}

// handleDecline 거부: 거부자만 큐에서 퇴출, 나머지는 풀에 남는다.
func (s *QueueService) handleDecline(ctx context.Context, doc *distributed.PendingAccept, playerID string) error {
	if err := s.queueRepo.Remove(playerID); err != nil {
		return err
	}

	if err := s.pending.Delete(ctx, doc.QueueType); err != nil {
		return err
	}

	s.logger.Info("Pending accept declined",
		zap.String("queueType", doc.QueueType),
		zap.String("playerId", playerID))

	remaining := make([]string, 0, len(doc.CandidateIDs)-1)
	for _, id := range doc.CandidateIDs {
		if id != playerID {
			remaining = append(remaining, id)
		}
	}
	s.notifier.HandshakeExpired(remaining, models.QueueType(doc.QueueType))

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	return nil
}

// dissolveExpired 마감 경과: 미응답/거부자를 큐에서 퇴출하고 핸드셰이크를 지운다.
// 수락했던 플레이어는 풀에 남아 다음 형성을 기다린다.
func (s *QueueService) dissolveExpired(ctx context.Context, doc *distributed.PendingAccept) error {
	evicted := doc.NonAcceptors()

	if err := s.queueRepo.RemoveMany(evicted); err != nil {
		return err
	}

	if err := s.pending.Delete(ctx, doc.QueueType); err != nil {
		return err
	}

	s.logger.Info("Pending accept expired",
		zap.String("queueType", doc.QueueType),
		zap.Int("evicted", len(evicted)))

	s.notifier.HandshakeExpired(doc.CandidateIDs, models.QueueType(doc.QueueType))

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	return nil
}

// dissolveRoster 형성 직전 로스터가 깨졌을 때의 해산. 큐 이탈은 본인 의사였으므로
// 아무도 퇴출하지 않고 핸드셰이크 문서만 지운 뒤 남은 후보에게 알린다.
func (s *QueueService) dissolveRoster(ctx context.Context, queueType models.QueueType, candidateIDs []string) error {
	if err := s.pending.Delete(ctx, string(queueType)); err != nil {
		return err
	}

	s.notifier.HandshakeExpired(candidateIDs, queueType)

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	return nil
}

// formMatch 매치 형성 임계 구역
// 매치는 반드시 전원 수락한 로스터(candidateIDs) 그대로 만들어진다.
// 락 보유 중에 로스터 전원이 아직 큐에 남아 있는지 확인하고, 이탈자가 있으면
// 핸드셰이크를 해산한 뒤 물러난다. 수락하지 않은 플레이어가 대신 편성되는 일은 없다.
// 락 경합은 조용한 no-op. 다음 폴링이 실제 상태를 보여준다.
func (s *QueueService) formMatch(ctx context.Context, cfg models.QueueConfig, candidateIDs []string) error {
	lock, err := s.locks.Acquire(ctx, string(cfg.Type), uuid.New().String(), s.formationLockTTL)
	if errors.Is(err, distributed.ErrLockNotAcquired) {
		s.logger.Debug("Formation lock contended, skipping",
			zap.String("queueType", string(cfg.Type)))
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			s.logger.Warn("Failed to release formation lock", zap.Error(err))
		}
	}()

	// 락 획득 후 수락 로스터 재확인. 수락과 형성 사이에 큐를 떠난 후보가 있으면
	// 합의가 깨진 것이므로 해산한다.
	for _, id := range candidateIDs {
		entry, err := s.queueRepo.FindByPlayer(id)
		if err != nil {
			return err
		}
		if entry == nil || entry.QueueType != cfg.Type {
			s.logger.Info("Accepted candidate left queue before formation, dissolving handshake",
				zap.String("queueType", string(cfg.Type)),
				zap.String("playerId", id))
			return s.dissolveRoster(ctx, cfg.Type, candidateIDs)
		}
	}

	users, err := s.userRepo.FindByIDs(candidateIDs)
	if err != nil {
		return err
	}

	candidates := make([]Candidate, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		user, ok := users[id]
		if !ok {
			return fmt.Errorf("candidate %s not found", id)
		}
		candidates = append(candidates, Candidate{
			PlayerID: id,
			Role:     user.PrimaryRole,
			Rating:   user.Rating,
		})
	}

	red, blue := SplitTeams(candidates)

	participants := make([]models.Participant, 0, len(candidates))
	for _, c := range red {
		participants = append(participants, models.Participant{PlayerID: c.PlayerID, Team: models.TeamRed, Role: c.Role})
	}
	for _, c := range blue {
		participants = append(participants, models.Participant{PlayerID: c.PlayerID, Team: models.TeamBlue, Role: c.Role})
	}

	// CreateFormed의 삭제 행 수 검사가 확인과 삭제 사이의 경합까지 마저 막는다.
	match, err := s.matchRepo.CreateFormed(
		cfg.Type,
		pickMap(candidateIDs),
		uuid.New().String()[:8],
		candidateIDs[0],
		participants,
	)
	if err != nil {
		return fmt.Errorf("failed to create formed match: %w", err)
	}

	if err := s.pending.Delete(ctx, string(cfg.Type)); err != nil {
		s.logger.Warn("Failed to delete pending accept after formation", zap.Error(err))
	}

	if err := s.statusCache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate status cache", zap.Error(err))
	}

	full, err := s.matchRepo.FindByID(match.ID)
	if err == nil && full != nil {
		match = full
	}
	s.notifier.MatchFormed(match)

	s.logger.Info("Match formed from queue",
		zap.String("matchId", match.ID),
		zap.String("queueType", string(cfg.Type)),
		zap.Int("players", len(participants)))

	return nil
}

// pickMap 후보 구성에 따라 맵 풀에서 결정적으로 선택
func pickMap(playerIDs []string) string {
	sum := 0
	for _, id := range playerIDs {
		for _, ch := range id {
			sum += int(ch)
		}
	}
	return models.MapPool[sum%len(models.MapPool)]
}
