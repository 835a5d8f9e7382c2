package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/strikehub/strikehub-backend/internal/service"
	"github.com/strikehub/strikehub-backend/pkg/logger"
)

type MatchHandler struct {
	matchService *service.MatchService
}

func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type CreateMatchRequest struct {
	Type string `json:"type" binding:"required"`
}

// CreateMatch 커스텀 매치 생성
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	userID := c.GetString("userId")

	var req CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	match, err := h.matchService.CreateCustom(c.Request.Context(), userID, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCustomMatchesDisabled):
			c.JSON(http.StatusForbidden, gin.H{"error": "Custom matches are currently disabled"})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unknown match type"})
		case errors.Is(err, service.ErrAlreadyInMatch):
			c.JSON(http.StatusConflict, gin.H{"error": "Already in an active match"})
		default:
			logger.Error("Failed to create match", "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create match"})
		}
		return
	}

	c.JSON(http.StatusCreated, match)
}

// GetMatch 매치 조회
func (h *MatchHandler) GetMatch(c *gin.Context) {
	match, err := h.matchService.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}

		logger.Error("Failed to get match", "matchId", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get match"})
		return
	}

	c.JSON(http.StatusOK, match)
}

// ListMatches 최근 매치 목록
func (h *MatchHandler) ListMatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	matches, err := h.matchService.ListRecent(page, pageSize)
	if err != nil {
		logger.Error("Failed to list matches", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// JoinMatch 커스텀 매치 참가
func (h *MatchHandler) JoinMatch(c *gin.Context) {
	userID := c.GetString("userId")
	matchID := c.Param("id")

	match, err := h.matchService.Join(c.Request.Context(), matchID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		case errors.Is(err, service.ErrMatchNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "Match is not accepting players"})
		case errors.Is(err, service.ErrMatchFull):
			c.JSON(http.StatusConflict, gin.H{"error": "Match is full"})
		case errors.Is(err, service.ErrAlreadyParticipant):
			c.JSON(http.StatusConflict, gin.H{"error": "Already in this match"})
		case errors.Is(err, service.ErrAlreadyInMatch):
			c.JSON(http.StatusConflict, gin.H{"error": "Already in an active match"})
		default:
			logger.Error("Failed to join match", "matchId", matchID, "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join match"})
		}
		return
	}

	c.JSON(http.StatusOK, match)
}

// LeaveMatch 커스텀 매치 탈퇴
func (h *MatchHandler) LeaveMatch(c *gin.Context) {
	userID := c.GetString("userId")
	matchID := c.Param("id")

	err := h.matchService.Leave(c.Request.Context(), matchID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		case errors.Is(err, service.ErrMatchNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "Match already started"})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusConflict, gin.H{"error": "Not a participant of this match"})
		case errors.Is(err, service.ErrCreatorCannotLeave):
			c.JSON(http.StatusConflict, gin.H{"error": "Creator must cancel the match instead"})
		default:
			logger.Error("Failed to leave match", "matchId", matchID, "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave match"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left match"})
}

// CancelMatch 매치 취소 (생성자)
func (h *MatchHandler) CancelMatch(c *gin.Context) {
	userID := c.GetString("userId")
	matchID := c.Param("id")

	err := h.matchService.Cancel(c.Request.Context(), matchID, userID, false)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		case errors.Is(err, service.ErrNotMatchCreator):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the match creator may cancel"})
		case errors.Is(err, service.ErrMatchNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "Match already started"})
		case errors.Is(err, service.ErrMatchAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "Match already finished or cancelled"})
		default:
			logger.Error("Failed to cancel match", "matchId", matchID, "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel match"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Match cancelled"})
}

// VetoMatch 참가자의 매치 취소 투표
func (h *MatchHandler) VetoMatch(c *gin.Context) {
	userID := c.GetString("userId")
	matchID := c.Param("id")

	result, err := h.matchService.Veto(c.Request.Context(), matchID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		case errors.Is(err, service.ErrMatchAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "Match already finished or cancelled"})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only participants may vote"})
		default:
			logger.Error("Failed to veto match", "matchId", matchID, "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to veto match"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
