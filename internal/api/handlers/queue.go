package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strikehub/strikehub-backend/internal/models"
	"github.com/strikehub/strikehub-backend/internal/service"
	"github.com/strikehub/strikehub-backend/pkg/logger"
)

type QueueHandler struct {
	queueService *service.QueueService
}

func NewQueueHandler(queueService *service.QueueService) *QueueHandler {
	return &QueueHandler{queueService: queueService}
}

type JoinQueueRequest struct {
	QueueType string `json:"queueType" binding:"required"`
}

// Join 큐 참가
func (h *QueueHandler) Join(c *gin.Context) {
	userID := c.GetString("userId")

	var req JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	err := h.queueService.Join(c.Request.Context(), userID, models.QueueType(req.QueueType))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownQueueType):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unknown queue type"})
		case errors.Is(err, service.ErrQueuesDisabled):
			c.JSON(http.StatusForbidden, gin.H{"error": "Queues are currently disabled"})
		case errors.Is(err, service.ErrNotEligible):
			c.JSON(http.StatusForbidden, gin.H{"error": "Rating not eligible for this queue"})
		case errors.Is(err, service.ErrAlreadyQueued):
			c.JSON(http.StatusConflict, gin.H{"error": "Already in a queue"})
		case errors.Is(err, service.ErrAlreadyInMatch):
			c.JSON(http.StatusConflict, gin.H{"error": "Already in an active match"})
		default:
			logger.Error("Failed to join queue", "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join queue"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined queue"})
}

// Leave 큐 이탈 (멱등)
func (h *QueueHandler) Leave(c *gin.Context) {
	userID := c.GetString("userId")

	if err := h.queueService.Leave(c.Request.Context(), userID); err != nil {
		logger.Error("Failed to leave queue", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left queue"})
}

// Status 큐 상태 조회 (집계 + 본인 수락 대기)
func (h *QueueHandler) Status(c *gin.Context) {
	userID := c.GetString("userId")
	filter := models.QueueType(c.Query("queueType"))

	status, err := h.queueService.Status(c.Request.Context(), userID, filter)
	if err != nil {
		logger.Error("Failed to load queue status", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load queue status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

type AcceptRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// Accept 매치 수락/거부 응답
func (h *QueueHandler) Accept(c *gin.Context) {
	userID := c.GetString("userId")

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	err := h.queueService.Accept(c.Request.Context(), userID, *req.Accept)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoPendingAccept):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No pending match to accept"})
		case errors.Is(err, service.ErrHandshakeExpired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Accept deadline has passed"})
		default:
			logger.Error("Failed to process accept", "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process accept"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Response recorded"})
}
