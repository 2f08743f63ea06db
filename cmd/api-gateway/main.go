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

	_ "github.com/acu-apex/holistic-gpa-api/api/swagger"
	"github.com/acu-apex/holistic-gpa-api/internal/handler"
	"github.com/acu-apex/holistic-gpa-api/internal/middleware"
	"github.com/acu-apex/holistic-gpa-api/internal/repository"
	"github.com/acu-apex/holistic-gpa-api/internal/schema"
	"github.com/acu-apex/holistic-gpa-api/internal/service"
	"github.com/acu-apex/holistic-gpa-api/pkg/cache"
	"github.com/acu-apex/holistic-gpa-api/pkg/config"
	"github.com/acu-apex/holistic-gpa-api/pkg/database"
	"github.com/acu-apex/holistic-gpa-api/pkg/jobs"
	"github.com/acu-apex/holistic-gpa-api/pkg/logger"
	corsmiddleware "github.com/acu-apex/holistic-gpa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acu-apex/holistic-gpa-api/pkg/middleware/requestid"
)

// @title Holistic GPA API
// @version 1.0.0
// @description Cohort submission, approval and holistic GPA scoring service
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The service degrades to uncached reads when redis is down.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	registry := schema.NewRegistry()

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	eventRepo := repository.NewEventRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "holistic-gpa-api",
	})

	scoringSvc := service.NewScoringService(submissionRepo, companyRepo, scoreRepo, cacheRepo, metricsSvc, logr, service.ScoringConfig{
		AcademicYear:      cfg.Scoring.AcademicYear,
		StandingsCacheTTL: cfg.Scoring.StandingsCacheTTL,
	})

	recalcQueue := jobs.NewQueue("scoring", scoringSvc.HandleRecalcJob, jobs.QueueConfig{
		Workers:        cfg.Scoring.WorkerConcurrency,
		MaxRetries:     cfg.Scoring.WorkerRetries,
		CoalesceWindow: cfg.Scoring.CoalesceWindow,
		Logger:         logr,
	})
	scoringSvc.AttachQueue(recalcQueue)

	submissionSvc := service.NewSubmissionService(registry, submissionRepo, eventRepo, companyRepo, scoringSvc, metricsSvc, validate, logr)
	approvalSvc := service.NewApprovalService(submissionRepo, companyRepo, scoringSvc, metricsSvc, validate, logr)
	eventSvc := service.NewEventService(eventRepo, registry, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, approvalSvc)
	standingsHandler := handler.NewStandingsHandler(scoringSvc, cfg.Exports.Enabled)
	eventHandler := handler.NewEventHandler(eventSvc)
	schemaHandler := handler.NewSchemaHandler(registry)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
		}

		authed := api.Group("")
		authed.Use(middleware.JWT(authSvc))
		{
			authed.GET("/submission-types", schemaHandler.Contracts)
			authed.POST("/submissions", submissionHandler.Submit)
			authed.GET("/submissions/pending", middleware.RequireStaff(), submissionHandler.ListPending)
			authed.POST("/submissions/:id/approve", middleware.RequireStaff(), submissionHandler.Approve)
			authed.POST("/submissions/:id/reject", middleware.RequireStaff(), submissionHandler.Reject)

			authed.GET("/standings", standingsHandler.Standings)
			authed.GET("/standings/export", middleware.RequireStaff(), standingsHandler.Export)
			authed.GET("/students/:id/holistic-gpa", standingsHandler.StudentGPA)
			authed.GET("/students/:id/holistic-gpa/history", standingsHandler.StudentHistory)

			authed.GET("/events", eventHandler.List)
			authed.POST("/events", middleware.RequireStaff(), eventHandler.CreateAdHoc)
			authed.POST("/events/recurring", middleware.RequireStaff(), eventHandler.CreateRecurring)
			authed.POST("/events/generate", middleware.RequireStaff(), eventHandler.Generate)
			authed.DELETE("/events/:id", middleware.RequireStaff(), eventHandler.Deactivate)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recalcQueue.Start(ctx)
	defer recalcQueue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	cacheRepo.Close() //nolint:errcheck
}
