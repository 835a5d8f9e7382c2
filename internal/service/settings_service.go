package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/pkg/logger"
)

const settingsKey = "app:settings"

// SettingsService 관리자 토글 저장소.
// 프로세스 전역 싱글턴 대신 요청마다 Redis에서 읽고,
// 키가 없거나 읽기에 실패하면 안전한 기본값으로 동작한다.
type SettingsService struct {
	client *redis.Client
}

func NewSettingsService(client *redis.Client) *SettingsService {
	return &SettingsService{client: client}
}

// Get 현재 설정 조회 (실패 시 기본값)
func (s *SettingsService) Get(ctx context.Context) models.Settings {
	data, err := s.client.Get(ctx, settingsKey).Result()
	if err == redis.Nil {
		return models.DefaultSettings()
	}
	if err != nil {
		logger.Warn("Failed to read settings, using defaults", "error", err)
		return models.DefaultSettings()
	}

	settings := models.DefaultSettings()
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		logger.Warn("Failed to parse settings, using defaults", "error", err)
		return models.DefaultSettings()
	}

	return settings
}

// Update 설정 저장 (관리자 전용 경로에서만 호출)
func (s *SettingsService) Update(ctx context.Context, settings models.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := s.client.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}
