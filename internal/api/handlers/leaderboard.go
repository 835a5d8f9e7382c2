package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/strikehub/strikehub-backend/internal/service"
	"github.com/strikehub/strikehub-backend/pkg/logger"
)

type LeaderboardHandler struct {
	userService *service.UserService
}

func NewLeaderboardHandler(userService *service.UserService) *LeaderboardHandler {
	return &LeaderboardHandler{userService: userService}
}

// GetLeaderboard 레이팅 상위 플레이어 목록
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	users, err := h.userService.Leaderboard(limit)
	if err != nil {
		logger.Error("Failed to load leaderboard", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"players": users})
}
