package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/pkg/database"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, rating, primary_role, tracker_id, avatar_url, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Rating,
		&user.PrimaryRole,
		&user.TrackerID,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// Create 새 사용자 생성
func (r *UserRepository) Create(username, email, passwordHash string, primaryRole models.PlayerRole) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, primary_role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(query, username, email, passwordHash, primaryRole))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByEmail 이메일로 사용자 찾기
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// FindByID ID로 사용자 찾기
func (r *UserRepository) FindByID(id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// FindByUsername 사용자명으로 찾기
func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRow(query, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// FindByIDs 여러 사용자 일괄 조회 (팀 배정용)
func (r *UserRepository) FindByIDs(ids []string) (map[string]*models.User, error) {
	if len(ids) == 0 {
		return map[string]*models.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make(map[string]*models.User, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}

	return users, nil
}

// Update 프로필 수정
func (r *UserRepository) Update(id string, primaryRole models.PlayerRole, avatarURL, trackerID *string) error {
	query := `
		UPDATE users
		SET primary_role = $1,
		    avatar_url = COALESCE($2, avatar_url),
		    tracker_id = COALESCE($3, tracker_id),
		    updated_at = NOW()
		WHERE id = $4
	`

	if _, err := r.db.Exec(query, primaryRole, avatarURL, trackerID, id); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// AdjustRating 승패에 따른 레이팅 증감 (0-20 범위로 고정)
func (r *UserRepository) AdjustRating(id string, delta int) error {
	query := `
		UPDATE users
		SET rating = LEAST(20, GREATEST(0, rating + $1)),
		    updated_at = NOW()
		WHERE id = $2
	`

	if _, err := r.db.Exec(query, delta, id); err != nil {
		return fmt.Errorf("failed to adjust rating: %w", err)
	}

	return nil
}

// SetRating 외부 랭크 동기화로 레이팅 직접 설정
func (r *UserRepository) SetRating(id string, rating int) error {
	query := `
		UPDATE users
		SET rating = LEAST(20, GREATEST(0, $1)),
		    updated_at = NOW()
		WHERE id = $2
	`

	if _, err := r.db.Exec(query, rating, id); err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}

	return nil
}

// TopByRating 레이팅 상위 플레이어 (리더보드)
func (r *UserRepository) TopByRating(limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY rating DESC, username ASC LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}
