package service

import (
	"fmt"

	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/repository"
)

// RatingService 매치 종료 시 레이팅 증감 적용.
// 승리 +1, 패배 -1, 항상 [0, 20] 범위로 고정. 무승부는 없다.
// 자체 멱등성이 없으므로 매치 상태 전이 관문 뒤에서만 호출해야 한다.
type RatingService struct {
	userRepo *repository.UserRepository
}

func NewRatingService(userRepo *repository.UserRepository) *RatingService {
	return &RatingService{userRepo: userRepo}
}

// NextRating 승패에 따른 다음 레이팅 (순수 함수)
func NextRating(current int, won bool) int {
	next := current - 1
	if won {
		next = current + 1
	}
	return ClampRating(next)
}

// ClampRating 레이팅을 [0, 20] 범위로 고정
func ClampRating(rating int) int {
	if rating < models.MinRating {
		return models.MinRating
	}
	if rating > models.MaxRating {
		return models.MaxRating
	}
	return rating
}

// MapSkillLevel 외부 제공자의 skill level(1-10)을 내부 레이팅으로 변환
func MapSkillLevel(skillLevel int) int {
	return ClampRating(skillLevel * 2)
}

// ApplyResult 참가자 한 명에 대한 승패 반영
func (s *RatingService) ApplyResult(playerID string, won bool) error {
	delta := -1
	if won {
		delta = 1
	}

	if err := s.userRepo.AdjustRating(playerID, delta); err != nil {
		return fmt.Errorf("failed to apply rating result: %w", err)
	}

	return nil
}

// SyncFromTracker 외부 랭크를 내부 레이팅으로 동기화
func (s *RatingService) SyncFromTracker(playerID string, skillLevel int) error {
	if err := s.userRepo.SetRating(playerID, MapSkillLevel(skillLevel)); err != nil {
		return fmt.Errorf("failed to sync rating: %w", err)
	}

	return nil
}
