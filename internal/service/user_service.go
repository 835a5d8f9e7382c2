package service

import (
	"fmt"

	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/repository"
	"github.com/strikehub/strikehub-backend/pkg/jwt"
)

// UserService 회원 가입/로그인/프로필
type UserService struct {
	userRepo   *repository.UserRepository
	jwtManager *jwt.JWTManager
}

func NewUserService(userRepo *repository.UserRepository, jwtManager *jwt.JWTManager) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register 회원 가입
// 중복 username/email은 ErrUserAlreadyExists.
func (s *UserService) Register(username, email, password string, primaryRole models.PlayerRole) (*models.User, error) {
	if username == "" || email == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}
	if !models.ValidPlayerRole(primaryRole) {
		return nil, ErrInvalidInput
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	existing, err = s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(username, email, hash, primaryRole)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login 로그인. 성공 시 JWT를 발급한다.
func (s *UserService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.CheckPassword(password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// GetByID 프로필 조회
func (s *UserService) GetByID(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// UpdateProfileInput 프로필 수정 입력 (nil 필드는 유지)
type UpdateProfileInput struct {
	PrimaryRole *models.PlayerRole
	AvatarURL   *string
	TrackerID   *string
}

// UpdateProfile 프로필 수정
func (s *UserService) UpdateProfile(id string, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	primaryRole := user.PrimaryRole
	if input.PrimaryRole != nil {
		if !models.ValidPlayerRole(*input.PrimaryRole) {
			return nil, ErrInvalidInput
		}
		primaryRole = *input.PrimaryRole
	}

	if err := s.userRepo.Update(id, primaryRole, input.AvatarURL, input.TrackerID); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.userRepo.FindByID(id)
}

// Leaderboard 레이팅 상위 플레이어 목록
func (s *UserService) Leaderboard(limit int) ([]*models.User, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	users, err := s.userRepo.TopByRating(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	return users, nil
}
