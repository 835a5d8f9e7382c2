package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/service"
	"github.com/strikehub/strikehub-backend/pkg/logger"
)

// AdminHandler 운영 토글과 매치 강제 전이 (RequireAdmin 뒤에서만 라우팅)
type AdminHandler struct {
	matchService    *service.MatchService
	settingsService *service.SettingsService
}

func NewAdminHandler(matchService *service.MatchService, settingsService *service.SettingsService) *AdminHandler {
	return &AdminHandler{
		matchService:    matchService,
		settingsService: settingsService,
	}
}

type AdminMatchRequest struct {
	Action string `json:"action" binding:"required,oneof=cancel restart"`
}

// PatchMatch 매치 강제 취소/재시작
func (h *AdminHandler) PatchMatch(c *gin.Context) {
	adminID := c.GetString("userId")
	matchID := c.Param("id")

	var req AdminMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "cancel":
		err := h.matchService.Cancel(c.Request.Context(), matchID, adminID, true)
		if err != nil {
			h.respondMatchError(c, matchID, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Match cancelled"})

	case "restart":
		match, err := h.matchService.Restart(c.Request.Context(), matchID)
		if err != nil {
			h.respondMatchError(c, matchID, err)
			return
		}
		c.JSON(http.StatusOK, match)
	}
}

type FinishMatchRequest struct {
	WinnerTeam      string                    `json:"winnerTeam" binding:"required"`
	DurationSeconds *int                      `json:"durationSeconds"`
	ExternalMatchID *string                   `json:"externalMatchId"`
	Stats           []models.ParticipantStats `json:"stats"`
}

// FinishMatch 매치 종료 및 결과 확정
func (h *AdminHandler) FinishMatch(c *gin.Context) {
	matchID := c.Param("id")

	var req FinishMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	match, err := h.matchService.Finish(
		c.Request.Context(),
		matchID,
		models.Team(req.WinnerTeam),
		req.DurationSeconds,
		req.ExternalMatchID,
		req.Stats,
	)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWinner) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Winner team must be red or blue"})
			return
		}
		h.respondMatchError(c, matchID, err)
		return
	}

	c.JSON(http.StatusOK, match)
}

// GetSettings 운영 설정 조회
func (h *AdminHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settingsService.Get(c.Request.Context()))
}

// UpdateSettings 운영 설정 변경
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.settingsService.Update(c.Request.Context(), settings); err != nil {
		logger.Error("Failed to update settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	logger.Info("Settings updated",
		"queuesEnabled", settings.QueuesEnabled,
		"customMatchesEnabled", settings.CustomMatchesEnabled)

	c.JSON(http.StatusOK, settings)
}

func (h *AdminHandler) respondMatchError(c *gin.Context, matchID string, err error) {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
	case errors.Is(err, service.ErrMatchAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "Match already finished or cancelled"})
	default:
		logger.Error("Admin match operation failed", "matchId", matchID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Match operation failed"})
	}
}
