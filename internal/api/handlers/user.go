package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/service"
	"github.com/strikehub/strikehub-backend/pkg/logger"
	"github.com/strikehub/strikehub-backend/pkg/tracker"
)

type UserHandler struct {
	userService   *service.UserService
	matchService  *service.MatchService
	ratingService *service.RatingService
	tracker       *tracker.Client
}

func NewUserHandler(
	userService *service.UserService,
	matchService *service.MatchService,
	ratingService *service.RatingService,
	trackerClient *tracker.Client,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		matchService:  matchService,
		ratingService: ratingService,
		tracker:       trackerClient,
	}
}

// GetCurrentUser 내 프로필 조회
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetString("userId")

	user, err := h.userService.GetByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		logger.Error("Failed to get user", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

type UpdateUserRequest struct {
	PrimaryRole *string `json:"primaryRole"`
	AvatarURL   *string `json:"avatarUrl"`
	TrackerID   *string `json:"trackerId"`
}

// UpdateCurrentUser 내 프로필 수정
func (h *UserHandler) UpdateCurrentUser(c *gin.Context) {
	userID := c.GetString("userId")

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateProfileInput{
		AvatarURL: req.AvatarURL,
		TrackerID: req.TrackerID,
	}
	if req.PrimaryRole != nil {
		role := models.PlayerRole(*req.PrimaryRole)
		input.PrimaryRole = &role
	}

	user, err := h.userService.UpdateProfile(userID, input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid profile input"})
			return
		}
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		logger.Error("Failed to update user", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// SyncRating 외부 전적 제공자의 현재 랭크를 내부 레이팅으로 동기화
func (h *UserHandler) SyncRating(c *gin.Context) {
	userID := c.GetString("userId")

	user, err := h.userService.GetByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		logger.Error("Failed to get user", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}

	if user.TrackerID == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No tracker account linked"})
		return
	}

	rank, err := h.tracker.PlayerRank(c.Request.Context(), *user.TrackerID)
	if err != nil {
		logger.Error("Failed to fetch tracker rank", "userId", userID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach tracker"})
		return
	}

	if err := h.ratingService.SyncFromTracker(userID, rank.SkillLevel); err != nil {
		logger.Error("Failed to sync rating", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync rating"})
		return
	}

	updated, err := h.userService.GetByID(userID)
	if err != nil {
		logger.Error("Failed to reload user", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload user"})
		return
	}

	logger.Info("Rating synced from tracker",
		"userId", userID, "skillLevel", rank.SkillLevel, "rating", updated.Rating)

	c.JSON(http.StatusOK, updated)
}

// GetMyMatches 내 매치 이력
func (h *UserHandler) GetMyMatches(c *gin.Context) {
	userID := c.GetString("userId")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	matches, err := h.matchService.HistoryByPlayer(userID, page, pageSize)
	if err != nil {
		logger.Error("Failed to load match history", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load match history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
