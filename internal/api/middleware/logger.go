package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strikehub/strikehub-backend/pkg/logger"
)

// Logger 요청 단위 액세스 로그
// 인증 미들웨어가 심어 둔 userId가 있으면 함께 남기고, 5xx는 경고로 올린다.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if query != "" {
			fields = append(fields, "query", query)
		}
		if userID := c.GetString("userId"); userID != "" {
			fields = append(fields, "userId", userID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		if c.Writer.Status() >= 500 {
			logger.Warn("HTTP request failed", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}
