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

	_ "github.com/noah-isme/studio-booking-api/api/swagger"
	"github.com/noah-isme/studio-booking-api/internal/handler"
	"github.com/noah-isme/studio-booking-api/internal/middleware"
	"github.com/noah-isme/studio-booking-api/internal/repository"
	"github.com/noah-isme/studio-booking-api/internal/service"
	"github.com/noah-isme/studio-booking-api/pkg/cache"
	"github.com/noah-isme/studio-booking-api/pkg/config"
	"github.com/noah-isme/studio-booking-api/pkg/database"
	"github.com/noah-isme/studio-booking-api/pkg/lock"
	"github.com/noah-isme/studio-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/studio-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/studio-booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/studio-booking-api/pkg/storage"
)

// @title Studio Booking API
// @version 1.0.0
// @description Recurring lesson scheduling engine: series, availability resolution, occurrence generation and conflict preview
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var locker lock.Locker = lock.NewMemoryLocker()
	cacheRepo := repository.NewCacheRepository(nil, logr)
	cacheEnabled := false
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, using in-process locking and no preview cache", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		locker = lock.NewRedisLocker(redisClient, "lock", cfg.Generation.LockTTL)
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheEnabled = cfg.Preview.CacheEnabled
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Preview.CacheTTL, logr, cacheEnabled)

	seriesRepo := repository.NewSeriesRepository(db)
	occurrenceRepo := repository.NewOccurrenceRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	blackoutRepo := repository.NewBlackoutRepository(db)

	validate := validator.New()

	availabilitySvc := service.NewAvailabilityService(availabilityRepo, blackoutRepo, validate, logr)
	seriesSvc := service.NewSeriesService(seriesRepo, validate, logr)
	occurrenceSvc := service.NewOccurrenceService(occurrenceRepo, logr)
	blackoutSvc := service.NewBlackoutService(blackoutRepo, validate, logr)
	previewSvc := service.NewPreviewService(seriesRepo, occurrenceRepo, availabilitySvc, cacheSvc, logr, service.PreviewConfig{
		DefaultHorizonDays: cfg.Preview.HorizonDays,
		CacheTTL:           cfg.Preview.CacheTTL,
	})
	generationSvc := service.NewGenerationService(seriesRepo, occurrenceRepo, availabilitySvc, locker, previewSvc, metrics, logr, service.GenerationConfig{
		DefaultLeadDays: cfg.Generation.DefaultLeadDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(seriesRepo, occurrenceRepo, store, signer, logr, service.ExportConfig{
			APIPrefix:          cfg.APIPrefix,
			Workers:            cfg.Exports.WorkerConcurrency,
			JobTTL:             cfg.Exports.SignedURLTTL,
			DefaultHorizonDays: cfg.Exports.HorizonDays,
		})
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
		go exportCleanupLoop(ctx, exportSvc, cfg.Exports.CleanupInterval, cfg.Exports.SignedURLTTL)
	}

	if cfg.Generation.SweepEnabled {
		sweeper := service.NewSweeperService(seriesRepo, generationSvc, cfg.Generation.SweepInterval, logr)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	seriesHandler := handler.NewSeriesHandler(seriesSvc)
	occurrenceHandler := handler.NewOccurrenceHandler(occurrenceSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	blackoutHandler := handler.NewBlackoutHandler(blackoutSvc)
	generationHandler := handler.NewGenerationHandler(generationSvc, previewSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.GET("/metrics/summary", metricsHandler.Summary)

		api.GET("/series", seriesHandler.List)
		api.POST("/series", seriesHandler.Create)
		api.GET("/series/:id", seriesHandler.Get)
		api.PUT("/series/:id", seriesHandler.Update)
		api.DELETE("/series/:id", seriesHandler.Delete)
		api.POST("/series/:id/generate", generationHandler.Generate)
		api.GET("/series/:id/preview", generationHandler.Preview)
		api.GET("/series/:id/occurrences", occurrenceHandler.ListBySeries)

		api.GET("/occurrences", occurrenceHandler.List)
		api.GET("/occurrences/:id", occurrenceHandler.Get)
		api.POST("/occurrences/:id/cancel", occurrenceHandler.Cancel)

		api.GET("/availability", availabilityHandler.List)
		api.POST("/availability", availabilityHandler.Create)
		api.PUT("/availability/:id/status", availabilityHandler.UpdateStatus)
		api.DELETE("/availability/:id", availabilityHandler.Delete)
		api.GET("/availability/resolve", availabilityHandler.Resolve)
		api.GET("/availability/resolve-shared", availabilityHandler.ResolveShared)

		api.GET("/blackouts", blackoutHandler.List)
		api.POST("/blackouts", blackoutHandler.Create)
		api.DELETE("/blackouts/:id", blackoutHandler.Delete)

		if exportSvc != nil {
			exportHandler := handler.NewExportHandler(exportSvc)
			api.POST("/series/:id/export", exportHandler.Queue)
			api.GET("/exports/:id", exportHandler.Job)
			api.GET("/exports/download/:token", exportHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func exportCleanupLoop(ctx context.Context, exports *service.ExportService, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exports.Cleanup(ttl)
		}
	}
}
