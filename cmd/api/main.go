package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/teacherlink/teacherlink-api/api/swagger"
	"github.com/teacherlink/teacherlink-api/internal/handler"
	"github.com/teacherlink/teacherlink-api/internal/middleware"
	"github.com/teacherlink/teacherlink-api/internal/models"
	"github.com/teacherlink/teacherlink-api/internal/repository"
	"github.com/teacherlink/teacherlink-api/internal/service"
	"github.com/teacherlink/teacherlink-api/pkg/cache"
	"github.com/teacherlink/teacherlink-api/pkg/config"
	"github.com/teacherlink/teacherlink-api/pkg/database"
	"github.com/teacherlink/teacherlink-api/pkg/jobs"
	"github.com/teacherlink/teacherlink-api/pkg/logger"
	corsmiddleware "github.com/teacherlink/teacherlink-api/pkg/middleware/cors"
	reqidmiddleware "github.com/teacherlink/teacherlink-api/pkg/middleware/requestid"
	"github.com/teacherlink/teacherlink-api/pkg/storage"
)

// @title TeacherLink API
// @version 1.0.0
// @description Parent-teacher communication API with a behavior-points ledger
// @BasePath /api/v1
// @schemes http

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
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, cache and feed disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	catalog := models.DefaultCatalog()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	pointRepo := repository.NewPointRecordRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	exportRepo := repository.NewExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Points.SummaryCacheTTL, logr, redisClient != nil)
	feedSvc := service.NewFeedService(redisClient, cfg.Feed.ChannelPrefix, metricsSvc, logr, cfg.Feed.Enabled && redisClient != nil)
	var notificationSvc *service.NotificationService
	if cfg.Notifications.Enabled {
		notificationSvc = service.NewNotificationService(nil, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
		}, logr)
	}

	authSvc := service.NewAuthService(userRepo, service.DomainRolePolicy("teacherlink.school"), validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	pointsSvc := service.NewPointsService(pointRepo, studentRepo, catalog, cacheSvc, feedSvc, notificationSvc, metricsSvc, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, nil, validate, logr)
	parentScoreSvc := service.NewParentScoreService(messageRepo, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportRepo, pointsSvc, store, signer, jobs.QueueConfig{
			Workers: cfg.Exports.Workers,
		}, logr, true)
	} else {
		exportSvc = service.NewExportService(exportRepo, pointsSvc, nil, nil, jobs.QueueConfig{}, logr, false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if notificationSvc != nil {
		notificationSvc.Start(ctx)
		defer notificationSvc.Stop()
	}
	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	behaviorHandler := handler.NewBehaviorHandler(catalog)
	pointsHandler := handler.NewPointsHandler(pointsSvc, feedSvc)
	classHandler := handler.NewClassHandler(classSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	parentScoreHandler := handler.NewParentScoreHandler(parentScoreSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/behaviors", behaviorHandler.List)

	teacherOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	protected.POST("/points/awards", teacherOnly, pointsHandler.Award)
	protected.GET("/points/records", pointsHandler.History)
	protected.DELETE("/classes/:classId/students/:studentId/points", teacherOnly, pointsHandler.Reset)
	protected.GET("/classes/:classId/students/:studentId/points/summary", pointsHandler.StudentSummary)
	protected.GET("/classes/:classId/points/summary", pointsHandler.ClassSummary)
	protected.GET("/classes/:classId/points/stream", pointsHandler.Stream)

	protected.GET("/classes", classHandler.List)
	protected.POST("/classes", middleware.RequireRoles(models.RoleAdmin), classHandler.Create)
	protected.GET("/classes/:classId", classHandler.Get)
	protected.GET("/classes/:classId/students", studentHandler.ListByClass)
	protected.GET("/students/:id", studentHandler.Get)
	protected.POST("/students", teacherOnly, studentHandler.Create)

	protected.POST("/messages", messageHandler.Send)
	protected.GET("/messages", messageHandler.Conversation)
	protected.POST("/messages/:id/read", messageHandler.MarkRead)

	protected.GET("/parents/:id/score", teacherOnly, parentScoreHandler.Score)

	protected.POST("/exports", teacherOnly, exportHandler.Request)
	protected.GET("/exports/:id", exportHandler.Status)
	api.GET("/exports/download/:token", exportHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
