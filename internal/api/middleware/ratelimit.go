package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strikehub/strikehub-backend/pkg/logger"
	"github.com/strikehub/strikehub-backend/pkg/ratelimit"
)

// RateLimitConfig Redis 기반 Rate Limit 설정
type RateLimitConfig struct {
	Limiter *ratelimit.RedisRateLimiter
	Limit   int                       // 윈도우 내 최대 요청 수
	Window  time.Duration             // 윈도우 크기
	KeyFunc func(*gin.Context) string // 키 추출 함수
}

// DefaultKeyFunc 인증된 사용자는 userId, 아니면 IP
func DefaultKeyFunc(c *gin.Context) string {
	if userID, exists := c.Get("userId"); exists {
		return fmt.Sprintf("user:%v", userID)
	}
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// IPKeyFunc IP 기반 키 (인증 전 엔드포인트용)
func IPKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// UserKeyFunc userId 기반 키 (인증 필수)
func UserKeyFunc(c *gin.Context) string {
	if userID, exists := c.Get("userId"); exists {
		return fmt.Sprintf("user:%v", userID)
	}
	return ""
}

// RateLimit Redis 기반 분산 Rate Limiting 미들웨어
// 핸들러가 무상태로 수평 확장되므로 인프로세스 카운터 대신 Redis를 쓴다.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = DefaultKeyFunc
	}
	if config.Limit <= 0 {
		config.Limit = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)

		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required for rate limiting",
			})
			c.Abort()
			return
		}

		ctx := context.Background()
		allowed, err := config.Limiter.Allow(ctx, key, config.Limit, config.Window)
		if err != nil {
			// Redis 오류 시 로깅하고 요청 허용 (Fail-open)
			logger.Warn("Rate limit check failed", "key", key, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": fmt.Sprintf("Too many requests. Limit: %d per %v", config.Limit, config.Window),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthRateLimit 로그인/가입 시도 제한 (5회/분). 인증 전이므로 IP 기준이다.
func AuthRateLimit(limiter *ratelimit.RedisRateLimiter) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Limiter: limiter,
		Limit:   5,
		Window:  time.Minute,
		KeyFunc: IPKeyFunc,
	})
}

// QueueRateLimit 큐 참가/수락 요청 제한 (30회/분)
func QueueRateLimit(limiter *ratelimit.RedisRateLimiter) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Limiter: limiter,
		Limit:   30,
		Window:  time.Minute,
		KeyFunc: UserKeyFunc,
	})
}

// MatchCreationRateLimit 커스텀 매치 생성 제한 (10회/분)
func MatchCreationRateLimit(limiter *ratelimit.RedisRateLimiter) gin.HandlerFunc {
	return RateLimit(RateLimitConfig{
		Limiter: limiter,
		Limit:   10,
		Window:  time.Minute,
		KeyFunc: UserKeyFunc,
	})
}
