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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/lgdark7/timetable/api/swagger"
	"github.com/lgdark7/timetable/internal/handler"
	"github.com/lgdark7/timetable/internal/repository"
	"github.com/lgdark7/timetable/internal/router"
	"github.com/lgdark7/timetable/internal/service"
	"github.com/lgdark7/timetable/pkg/cache"
	"github.com/lgdark7/timetable/pkg/config"
	"github.com/lgdark7/timetable/pkg/database"
	"github.com/lgdark7/timetable/pkg/jobs"
	"github.com/lgdark7/timetable/pkg/logger"
)

// @title Timetable API
// @version 1.0.0
// @description Weekly timetable generation, editing and leave substitution.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	readiness := []handler.ReadinessCheck{{Name: "postgres", Check: db.PingContext}}

	var cacheRepo service.CacheRepository
	if cfg.Timetable.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, "timetable-api", logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			readiness = append(readiness, handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}})
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Timetable.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()

	departmentRepo := repository.NewDepartmentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)

	authSvc := service.NewAuthService(teacherRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	catalogSvc := service.NewCatalogService(departmentRepo, teacherRepo, classroomRepo, courseRepo, allocationRepo, cacheSvc, validate, logr)
	timetableSvc := service.NewTimetableService(departmentRepo, teacherRepo, classroomRepo, timetableRepo, cacheSvc, metrics, validate, logr, service.TimetableConfig{
		Seed:            cfg.Scheduler.Seed,
		MaxAttempts:     cfg.Scheduler.MaxAttempts,
		EnforceWorkload: cfg.Scheduler.EnforceWorkload,
		SuggestionLimit: cfg.Scheduler.SuggestionLimit,
		JobTTL:          cfg.Scheduler.JobTTL,
	})
	leaveSvc := service.NewLeaveService(leaveRepo, substitutionRepo, timetableRepo, teacherRepo, metrics, validate, logr, cfg.Scheduler.Seed)
	exportSvc := service.NewExportService(departmentRepo, timetableRepo, validate, logr)

	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	queue := jobs.NewQueue("timetable-generation", timetableSvc.HandleGenerationJob, jobs.QueueConfig{
		Workers:   cfg.Scheduler.JobWorkers,
		Logger:    logr,
		OnFailure: timetableSvc.FailGenerationJob,
	})
	queue.Start(queueCtx)
	timetableSvc.AttachQueue(queue)

	engine := router.Setup(cfg, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Catalog:   handler.NewCatalogHandler(catalogSvc),
		Timetable: handler.NewTimetableHandler(timetableSvc, exportSvc),
		Leave:     handler.NewLeaveHandler(leaveSvc),
		Metrics:   handler.NewMetricsHandler(metrics, readiness...),
	}, authSvc, metrics, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	queue.Stop()
	logr.Info("server stopped")
}
