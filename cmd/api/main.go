package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/debsaikia03/main-backend/internal/handler"
	"github.com/debsaikia03/main-backend/internal/middleware"
	"github.com/debsaikia03/main-backend/internal/repository"
	"github.com/debsaikia03/main-backend/internal/service"
	"github.com/debsaikia03/main-backend/internal/token"
	"github.com/debsaikia03/main-backend/pkg/cache"
	"github.com/debsaikia03/main-backend/pkg/config"
	"github.com/debsaikia03/main-backend/pkg/database"
	"github.com/debsaikia03/main-backend/pkg/logger"
	corsmiddleware "github.com/debsaikia03/main-backend/pkg/middleware/cors"
	reqidmiddleware "github.com/debsaikia03/main-backend/pkg/middleware/requestid"
	"github.com/debsaikia03/main-backend/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, channel caching disabled", "error", err)
		redisClient = nil
	}

	media, err := storage.NewMediaStore(cfg.Media)
	if err != nil {
		logr.Sugar().Fatalw("failed to init media store", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	issuer := token.NewIssuer(token.Config{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		AccessTTL:     cfg.Auth.AccessTokenExpiry,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		RefreshTTL:    cfg.Auth.RefreshTokenExpiry,
		Issuer:        cfg.Auth.Issuer,
	})

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	engagement := service.NewEngagementQueue(videoRepo, logr)
	engagement.Start(context.Background())
	defer engagement.Stop()

	authSvc := service.NewAuthService(userRepo, issuer, validate, logr)
	userSvc := service.NewUserService(userRepo, videoRepo, media, cacheRepo, cfg.Channel.CacheTTL, metricsSvc, validate, logr)
	videoSvc := service.NewVideoService(videoRepo, media, engagement, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc, media, cfg.Auth)
	userHandler := handler.NewUserHandler(userSvc, media)
	videoHandler := handler.NewVideoHandler(videoSvc, media)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.MaxMultipartMemory = cfg.Media.MaxFileSize
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static(cfg.Media.PublicBase, media.Dir())

	api := r.Group(cfg.APIPrefix)

	users := api.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.POST("/refresh-token", authHandler.Refresh)

	gated := users.Group("", middleware.Auth(authSvc))
	gated.POST("/logout", authHandler.Logout)
	gated.POST("/change-password", authHandler.ChangePassword)
	gated.GET("/me", authHandler.Me)
	gated.PATCH("/update-profile", userHandler.UpdateProfile)
	gated.PATCH("/avatar", userHandler.UpdateAvatar)
	gated.PATCH("/cover-image", userHandler.UpdateCoverImage)
	gated.GET("/channel/:username", userHandler.Channel)
	gated.GET("/watch-history", userHandler.WatchHistory)

	videos := api.Group("/videos", middleware.Auth(authSvc))
	videos.POST("", videoHandler.Publish)
	videos.GET("", videoHandler.List)
	videos.GET("/:id", videoHandler.Get)
	videos.PATCH("/:id", videoHandler.Update)
	videos.DELETE("/:id", videoHandler.Delete)
	videos.PATCH("/:id/toggle-publish", videoHandler.TogglePublish)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
