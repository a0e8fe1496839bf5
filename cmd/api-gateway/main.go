package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/brightpath/aba-scheduler-api/api/swagger"
	"github.com/brightpath/aba-scheduler-api/internal/handler"
	"github.com/brightpath/aba-scheduler-api/internal/middleware"
	"github.com/brightpath/aba-scheduler-api/internal/models"
	"github.com/brightpath/aba-scheduler-api/internal/repository"
	"github.com/brightpath/aba-scheduler-api/internal/scheduler"
	"github.com/brightpath/aba-scheduler-api/internal/service"
	"github.com/brightpath/aba-scheduler-api/pkg/cache"
	"github.com/brightpath/aba-scheduler-api/pkg/config"
	"github.com/brightpath/aba-scheduler-api/pkg/database"
	"github.com/brightpath/aba-scheduler-api/pkg/logger"
	corsmiddleware "github.com/brightpath/aba-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/brightpath/aba-scheduler-api/pkg/middleware/requestid"
)

// @title ABA Scheduler API
// @version 0.1.0
// @description Weekly therapy scheduling: constraint validation, genetic schedule generation and feedback-driven weight tuning
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, diagnostics caching disabled", "error", err)
		} else {
			defer redisClient.Close()
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()

	staffRepo := repository.NewStaffRepository(db)
	clientRepo := repository.NewClientRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	qualificationRepo := repository.NewQualificationRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	weightRepo := repository.NewWeightRepository(db)
	userRepo := repository.NewUserRepository(db)

	weightStore := scheduler.NewWeightStore(nil)
	hours := scheduler.OperatingHours{
		StartMinute: cfg.Scheduler.OperatingStartMinute,
		EndMinute:   cfg.Scheduler.OperatingEndMinute,
	}

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	registrySvc := service.NewRegistryService(staffRepo, clientRepo, teamRepo, qualificationRepo, hours, logr)
	generationSvc := service.NewGenerationService(registrySvc, scheduleRepo, weightStore, cfg.Scheduler, metricsSvc, validate, logr)
	tuningSvc := service.NewTuningService(feedbackRepo, weightRepo, weightStore, redisClient, cfg.Tuning, metricsSvc, validate, logr)
	exportSvc := service.NewExportService(scheduleRepo, staffRepo, clientRepo, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	restoreCtx, cancelRestore := context.WithTimeout(rootCtx, 10*time.Second)
	if err := tuningSvc.RestoreWeights(restoreCtx); err != nil {
		logr.Sugar().Warnw("failed to restore persisted weights, using defaults", "error", err)
	}
	cancelRestore()

	tuningSvc.StartPeriodic(rootCtx)
	defer tuningSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	registryHandler := handler.NewRegistryHandler(registrySvc)
	scheduleHandler := handler.NewScheduleHandler(generationSvc, exportSvc)
	feedbackHandler := handler.NewFeedbackHandler(tuningSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		authed := api.Group("", middleware.JWT(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/staff", registryHandler.ListStaff)
			authed.GET("/staff/:id", registryHandler.GetStaff)
			authed.GET("/clients", registryHandler.ListClients)
			authed.GET("/clients/:id", registryHandler.GetClient)
			authed.GET("/teams", registryHandler.ListTeams)
			authed.GET("/qualifications", registryHandler.ListQualifications)

			authed.GET("/schedules", scheduleHandler.List)
			authed.GET("/schedules/:id", scheduleHandler.Get)
			authed.GET("/schedules/:id/export", scheduleHandler.Export)
			authed.POST("/schedules/validate-entry", scheduleHandler.ValidateEntry)
			authed.POST("/schedules/generate",
				middleware.RequireRoles(models.RoleScheduler), scheduleHandler.Generate)

			authed.POST("/feedback", feedbackHandler.Submit)
			authed.GET("/feedback/diagnostics", feedbackHandler.Diagnostics)
			authed.POST("/feedback/recalibrate",
				middleware.RequireRoles(models.RoleScheduler), feedbackHandler.Recalibrate)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
