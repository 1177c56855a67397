package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/cipherroom/internal/api"
	"github.com/lalith-99/cipherroom/internal/cache"
	"github.com/lalith-99/cipherroom/internal/config"
	"github.com/lalith-99/cipherroom/internal/db"
	"github.com/lalith-99/cipherroom/internal/middleware"
	"github.com/lalith-99/cipherroom/internal/observ"
	"github.com/lalith-99/cipherroom/internal/repository/postgres"
	"github.com/lalith-99/cipherroom/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup uses Background(): there is no request deadline yet, and
	// connecting may take as long as it takes.
	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Redis is optional: if it's unreachable the room-code cache is
	// disabled and every lookup goes to Postgres.
	var roomCache *cache.RoomCodes
	if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
		logger.Warn("invalid redis URL, room cache disabled", zap.Error(err))
	} else {
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, room cache disabled", zap.Error(err))
		} else {
			roomCache = cache.NewRoomCodes(rdb, logger)
			defer rdb.Close()
		}
	}

	pool := database.Pool()
	roomRepo := postgres.NewRoomStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	inviteRepo := postgres.NewInviteStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	receiptRepo := postgres.NewReceiptStore(pool)

	roomSvc := service.NewRoomService(roomRepo, membershipRepo, roomCache, logger)
	membershipSvc := service.NewMembershipService(roomRepo, membershipRepo, inviteRepo, logger)
	messageSvc := service.NewMessageService(roomRepo, membershipRepo, messageRepo, receiptRepo, logger)
	deliverySvc := service.NewDeliveryService(roomRepo, membershipRepo, messageRepo, receiptRepo)

	roomHandler := api.NewRoomHandler(roomSvc, logger)
	membershipHandler := api.NewMembershipHandler(membershipSvc, logger)
	messageHandler := api.NewMessageHandler(messageSvc, logger)
	receiptHandler := api.NewReceiptHandler(deliverySvc, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	logger.Info("starting CipherRoom",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	// Health check stays public so load balancers can reach it.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Everything else requires a token from the identity provider.
	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.POST("/rooms", roomHandler.Create)
	v1.GET("/rooms", roomHandler.List)
	v1.GET("/rooms/by-code/:code", roomHandler.GetByCode)
	v1.GET("/rooms/:id", roomHandler.GetByID)
	v1.PATCH("/rooms/:id", roomHandler.Update)
	v1.DELETE("/rooms/:id", roomHandler.Delete)

	v1.POST("/rooms/join", membershipHandler.Join)
	v1.POST("/rooms/:id/leave", membershipHandler.Leave)
	v1.GET("/rooms/:id/members", membershipHandler.ListMembers)
	v1.POST("/rooms/:id/invites", membershipHandler.CreateInvite)
	v1.GET("/rooms/:id/invites", membershipHandler.ListInvites)
	v1.POST("/invites/redeem", membershipHandler.RedeemInvite)

	v1.POST("/rooms/:id/messages", messageHandler.Post)
	v1.GET("/rooms/:id/messages", messageHandler.List)
	v1.GET("/messages/:id", messageHandler.Get)
	v1.PATCH("/messages/:id", messageHandler.Update)
	v1.DELETE("/messages/:id", messageHandler.Delete)

	v1.POST("/messages/:id/delivered", receiptHandler.MarkDelivered)
	v1.POST("/messages/:id/read", receiptHandler.MarkRead)
	v1.GET("/messages/:id/receipts", receiptHandler.ListReceipts)

	return srv.Run(":" + cfg.Port)
}
