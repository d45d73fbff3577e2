package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-scheduling-core/api/swagger"
	"github.com/noah-isme/sma-scheduling-core/internal/handler"
	"github.com/noah-isme/sma-scheduling-core/internal/middleware"
	"github.com/noah-isme/sma-scheduling-core/internal/repository"
	"github.com/noah-isme/sma-scheduling-core/internal/service"
	"github.com/noah-isme/sma-scheduling-core/pkg/cache"
	"github.com/noah-isme/sma-scheduling-core/pkg/config"
	"github.com/noah-isme/sma-scheduling-core/pkg/database"
	"github.com/noah-isme/sma-scheduling-core/pkg/export"
	"github.com/noah-isme/sma-scheduling-core/pkg/jobs"
	"github.com/noah-isme/sma-scheduling-core/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-scheduling-core/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-scheduling-core/pkg/middleware/requestid"
)

// @title SMA Scheduling Core API
// @version 1.0.0
// @description Room and class timetabling, semester calendars and staff identifier allocation
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("run migrations", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if cfg.Availability.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		switch {
		case err != nil:
			logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
		case client != nil:
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Availability.CacheTTL, logr, cacheRepo != nil)

	store := repository.NewStore(db).WithObserver(metrics)
	scheduling := service.NewSchedulingService(store, service.SchedulingServiceConfig{
		SlotRules:          service.SlotRules{MinMinutes: cfg.Slots.MinMinutes, MaxMinutes: cfg.Slots.MaxMinutes},
		IdentifierAttempts: cfg.Identifiers.MaxAttempts,
		Cache:              cacheSvc,
		CacheTTL:           cfg.Availability.CacheTTL,
		Metrics:            metrics,
	}, validate, logr)
	catalog := service.NewCatalogService(store, cacheSvc, validate, logr)
	exports := service.NewExportService(catalog, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	auditWorker := service.NewAuditWorker(scheduling, metrics, logr)
	audits := jobs.NewQueue("invariant-audit", auditWorker.Handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: 2,
		RetryDelay: 30 * time.Second,
		Logger:     logr,
	})
	audits.Start(ctx)
	defer audits.Stop()
	if cfg.Audit.Interval > 0 {
		go audits.Every(ctx, cfg.Audit.Interval, service.InvariantAuditJob)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ops := handler.NewOpsHandler(metrics.Handler(), scheduling, audits, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Schedules:   handler.NewScheduleHandler(scheduling),
		Semesters:   handler.NewSemesterHandler(scheduling, catalog),
		Catalog:     handler.NewCatalogHandler(catalog, exports),
		Identifiers: handler.NewIdentifierHandler(scheduling),
		Ops:         ops,
	}, middleware.RateLimit(cfg.Identifiers.RatePerSec, cfg.Identifiers.RateBurst))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
