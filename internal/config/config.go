package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret     string
	JWTExpiration time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Matchmaking
	AcceptDeadline   time.Duration // 매치 수락 제한 시간
	FormationLockTTL time.Duration // 매치 생성 락 TTL
	StatusCacheTTL   time.Duration // 큐 상태 캐시 TTL

	// Tracker (외부 전적 제공자)
	TrackerURL        string
	TrackerAPIKey     string
	ReconcileInterval time.Duration
	ReconcileMinAge   time.Duration
}

func Load() (*Config, error) {
	// .env 파일 로드 (있는 경우)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:          getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiration:      parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		AcceptDeadline:     parseDuration(getEnv("ACCEPT_DEADLINE", "30s"), 30*time.Second),
		FormationLockTTL:   parseDuration(getEnv("FORMATION_LOCK_TTL", "10s"), 10*time.Second),
		StatusCacheTTL:     parseDuration(getEnv("STATUS_CACHE_TTL", "5s"), 5*time.Second),
		TrackerURL:         getEnv("TRACKER_URL", "http://localhost:8090"),
		TrackerAPIKey:      getEnv("TRACKER_API_KEY", ""),
		ReconcileInterval:  parseDuration(getEnv("RECONCILE_INTERVAL", "1m"), time.Minute),
		ReconcileMinAge:    parseDuration(getEnv("RECONCILE_MIN_AGE", "20m"), 20*time.Minute),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
