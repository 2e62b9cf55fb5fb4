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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/maamarmordechaibp/school-management-sub001/api/swagger"
	"github.com/maamarmordechaibp/school-management-sub001/internal/handler"
	internalmiddleware "github.com/maamarmordechaibp/school-management-sub001/internal/middleware"
	"github.com/maamarmordechaibp/school-management-sub001/internal/repository"
	"github.com/maamarmordechaibp/school-management-sub001/internal/service"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/cache"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/config"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/database"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/logger"
	corsmiddleware "github.com/maamarmordechaibp/school-management-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/maamarmordechaibp/school-management-sub001/pkg/middleware/requestid"
	"github.com/maamarmordechaibp/school-management-sub001/pkg/storage"
)

// @title School Scheduling API
// @version 1.0.0
// @description Bulk scheduling of parent calls and meetings into recurring availability windows.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The API degrades to uncached reads without Redis.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	availabilityRepo := repository.NewAvailabilityRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	callLogRepo := repository.NewCallLogRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	availabilitySvc := service.NewAvailabilityService(availabilityRepo, cacheRepo, validate, logr, cfg.Scheduler.AvailabilityTTL).
		WithMetrics(metricsSvc)
	studentSvc := service.NewStudentService(studentRepo, callLogRepo, validate, logr)
	meetingSvc := service.NewMeetingService(meetingRepo, logr)
	bulkSvc := service.NewBulkScheduleService(availabilitySvc, studentRepo, callLogRepo, meetingRepo, db, validate, logr, service.BulkScheduleConfig{
		RunTTL:            cfg.Scheduler.RunTTL,
		DefaultDayHorizon: cfg.Scheduler.DefaultDayHorizon,
		MaxRosterSize:     cfg.Scheduler.MaxRosterSize,
	}).WithMetrics(metricsSvc)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(bulkSvc, store, signer, validate, logr, service.ExportConfig{
			WorkerConcurrency: cfg.Exports.WorkerConcurrency,
			SignedURLTTL:      cfg.Exports.SignedURLTTL,
			CleanupInterval:   cfg.Exports.CleanupInterval,
		}).WithMetrics(metricsSvc)
		exportSvc.Start(rootCtx)
		defer exportSvc.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	bulkHandler := handler.NewBulkScheduleHandler(bulkSvc, meetingSvc)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/availability-windows", availabilityHandler.List)
		api.POST("/availability-windows", availabilityHandler.Create)
		api.GET("/availability-windows/:id", availabilityHandler.Get)
		api.PUT("/availability-windows/:id", availabilityHandler.Update)
		api.DELETE("/availability-windows/:id", availabilityHandler.Delete)

		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)
		api.GET("/students/:id/call-logs", studentHandler.CallLogs)

		api.POST("/schedule/bulk/preview", bulkHandler.Preview)
		api.POST("/schedule/bulk/confirm", bulkHandler.Confirm)
		api.GET("/meetings", bulkHandler.ListMeetings)

		if exportSvc != nil {
			exportHandler := handler.NewExportHandler(exportSvc)
			api.POST("/schedule/exports", exportHandler.Create)
			api.GET("/schedule/exports/:id", exportHandler.Get)
			api.GET("/schedule/exports/download", exportHandler.Download)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
