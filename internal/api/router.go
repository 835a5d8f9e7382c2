package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/strikehub/strikehub-backend/internal/api/handlers"
	"github.com/strikehub/strikehub-backend/internal/api/middleware"
	"github.com/strikehub/strikehub-backend/internal/config"
	"github.com/strikehub/strikehub-backend/internal/repository"
	"github.com/strikehub/strikehub-backend/internal/service"
	"github.com/strikehub/strikehub-backend/internal/websocket"
	"github.com/strikehub/strikehub-backend/pkg/cache"
	"github.com/strikehub/strikehub-backend/pkg/database"
	"github.com/strikehub/strikehub-backend/pkg/distributed"
	"github.com/strikehub/strikehub-backend/pkg/jwt"
	"github.com/strikehub/strikehub-backend/pkg/logger"
	"github.com/strikehub/strikehub-backend/pkg/ratelimit"
	"github.com/strikehub/strikehub-backend/pkg/tracker"
)

// SetupRouter API 라우터 설정
// 반환된 정리 함수는 서버 종료 시 백그라운드 서비스를 멈춘다.
func SetupRouter(cfg *config.Config, db *database.DB) (*gin.Engine, func()) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Redis 연결
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		panic("Failed to parse Redis URL: " + err.Error())
	}
	redisClient := redis.NewClient(redisOpts)

	// Repository 초기화
	userRepo := repository.NewUserRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	matchRepo := repository.NewMatchRepository(db, queueRepo)

	// Redis 조정 계층
	pendingCoordinator := distributed.NewPendingAcceptCoordinator(redisClient)
	lockManager := distributed.NewFormationLockManager(redisClient)
	statusCache := cache.NewStatusCache(redisClient, cfg.StatusCacheTTL)
	rateLimiter := ratelimit.NewRedisRateLimiter(redisClient, 60, 0)

	// WebSocket Hub 초기화 및 시작
	wsHub := websocket.NewHub(logger.Desugar())
	go wsHub.Run()

	// Service 초기화
	jwtManager := jwt.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	notifier := service.NewNotifier(wsHub)
	settingsService := service.NewSettingsService(redisClient)
	userService := service.NewUserService(userRepo, jwtManager)
	ratingService := service.NewRatingService(userRepo)
	matchService := service.NewMatchService(
		matchRepo, userRepo, ratingService, settingsService,
		statusCache, notifier, logger.Desugar(),
	)
	queueService := service.NewQueueService(
		queueRepo, matchRepo, userRepo,
		pendingCoordinator, lockManager, statusCache,
		settingsService, notifier, logger.Desugar(),
		cfg.AcceptDeadline, cfg.FormationLockTTL,
	)

	trackerClient := tracker.NewClient(cfg.TrackerURL, cfg.TrackerAPIKey)

	// 외부 결과 대조기 시작
	reconciler := service.NewReconcileService(
		matchRepo, userRepo, matchService, trackerClient,
		cfg.ReconcileInterval, cfg.ReconcileMinAge,
		logger.Desugar(),
	)
	reconciler.Start()

	// Handler 초기화
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService, matchService, ratingService, trackerClient)
	queueHandler := handlers.NewQueueHandler(queueService)
	matchHandler := handlers.NewMatchHandler(matchService)
	adminHandler := handlers.NewAdminHandler(matchService, settingsService)
	leaderboardHandler := handlers.NewLeaderboardHandler(userService)
	wsHandler := handlers.NewWebSocketHandler(wsHub)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// WebSocket endpoint
		v1.GET("/ws", middleware.Auth(cfg), wsHandler.HandleWebSocket)

		// Auth routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit(rateLimiter))
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
		}

		// Queue routes
		queue := v1.Group("/queue")
		queue.Use(middleware.Auth(cfg))
		{
			queue.POST("/join", middleware.QueueRateLimit(rateLimiter), queueHandler.Join)
			queue.POST("/leave", queueHandler.Leave)
			queue.GET("/status", queueHandler.Status)
			queue.POST("/accept", middleware.QueueRateLimit(rateLimiter), queueHandler.Accept)
		}

		// Match routes
		matches := v1.Group("/matches")
		{
			matches.GET("", matchHandler.ListMatches)
			matches.GET("/:id", matchHandler.GetMatch)
			matches.POST("", middleware.Auth(cfg), middleware.MatchCreationRateLimit(rateLimiter), matchHandler.CreateMatch)
			matches.POST("/:id/join", middleware.Auth(cfg), matchHandler.JoinMatch)
			matches.POST("/:id/leave", middleware.Auth(cfg), matchHandler.LeaveMatch)
			matches.POST("/:id/cancel", middleware.Auth(cfg), matchHandler.CancelMatch)
			matches.POST("/:id/veto", middleware.Auth(cfg), matchHandler.VetoMatch)
		}

		// Leaderboard routes
		leaderboard := v1.Group("/leaderboard")
		{
			leaderboard.GET("", leaderboardHandler.GetLeaderboard)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.Auth(cfg))
		{
			users.GET("/me", userHandler.GetCurrentUser)
			users.PUT("/me", userHandler.UpdateCurrentUser)
			users.GET("/me/matches", userHandler.GetMyMatches)
			users.POST("/me/sync-rating", userHandler.SyncRating)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.Auth(cfg), middleware.RequireAdmin())
		{
			admin.PATCH("/matches/:id", adminHandler.PatchMatch)
			admin.POST("/matches/:id/finish", adminHandler.FinishMatch)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
		}
	}

	cleanup := func() {
		reconciler.Stop()
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis client", "error", err)
		}
	}

	return router, cleanup
}
