package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/localbiz-backend/config"
	"github.com/ikkim/localbiz-backend/internal/app/controller"
	"github.com/ikkim/localbiz-backend/internal/app/repository"
	"github.com/ikkim/localbiz-backend/internal/app/service"
	"github.com/ikkim/localbiz-backend/internal/db"
	"github.com/ikkim/localbiz-backend/internal/middleware"
	"github.com/ikkim/localbiz-backend/internal/router"
	"github.com/ikkim/localbiz-backend/internal/scheduler"
	"github.com/ikkim/localbiz-backend/internal/storage"
	"github.com/ikkim/localbiz-backend/internal/websocket"
	"github.com/ikkim/localbiz-backend/pkg/logger"
	"github.com/ikkim/localbiz-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format == "console",
	})
	log := logger.Get()

	log.Info("Starting LocalBiz Backend Server", logger.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist. Without it logout is client side only.
	var blacklist redis.TokenBlacklist
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			log.Warn("Redis unavailable, token revocation disabled", logger.Fields{
				"error": err.Error(),
			})
		} else {
			blacklist = redis.NewTokenBlacklist(redis.GetClient())
			defer redis.Close()
		}
	}

	conn := db.GetDB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(conn, log)
	businessRepo := repository.NewBusinessRepository(conn, log)
	reviewRepo := repository.NewReviewRepository(conn, log)
	forumRepo := repository.NewForumRepository(conn, log)
	bookmarkRepo := repository.NewBookmarkRepository(conn, log)
	referralRepo := repository.NewReferralRepository(conn, log)
	voucherRepo := repository.NewVoucherRepository(conn, log)

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	// Initialize services
	businessService := service.NewBusinessService(conn, businessRepo, userRepo, log)
	userService := service.NewUserService(conn, userRepo, referralRepo, voucherRepo, cfg.Referral.VoucherAmount, log)
	authService := service.NewAuthService(userRepo, userService, blacklist, service.AuthConfig{
		JWTSecret:          cfg.JWT.Secret,
		AccessExpiry:       cfg.JWT.AccessTokenExpiry,
		RefreshExpiry:      cfg.JWT.RefreshTokenExpiry,
		ReferralCodeLength: cfg.Referral.CodeLength,
	}, log)
	reviewService := service.NewReviewService(reviewRepo, businessRepo, log)
	forumService := service.NewForumService(forumRepo, businessRepo, businessService, hub, log)
	bookmarkService := service.NewBookmarkService(bookmarkRepo, businessService, log)

	voucherScheduler := scheduler.NewVoucherExpiryScheduler(cfg.Scheduler.VoucherExpirySpec, userService, log)
	if err := voucherScheduler.Start(); err != nil {
		log.Fatal("Failed to start voucher expiry scheduler", err)
	}
	defer voucherScheduler.Stop()

	// Initialize controllers
	controllers := router.Controllers{
		Auth:     controller.NewAuthController(authService),
		User:     controller.NewUserController(userService),
		Business: controller.NewBusinessController(businessService),
		Review:   controller.NewReviewController(reviewService),
		Forum:    controller.NewForumController(forumService),
		Bookmark: controller.NewBookmarkController(bookmarkService),
		WS:       controller.NewWSController(hub, forumService, cfg.CORS.AllowedOrigins),
	}
	if cfg.S3.Bucket != "" {
		s3 := storage.NewS3Storage(ctx, storage.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			BaseURL:         cfg.S3.BaseURL,
			PresignExpiry:   cfg.S3.PresignExpiry,
		}, log)
		controllers.Upload = controller.NewUploadController(s3)
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)

	engine := router.NewRouter(controllers, authMiddleware, cfg, log).Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Server started successfully", logger.Fields{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}

	log.Info("Server stopped successfully")
}
