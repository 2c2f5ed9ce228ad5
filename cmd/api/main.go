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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/chowchow0048/PMS/api/swagger"
	"github.com/chowchow0048/PMS/internal/handler"
	"github.com/chowchow0048/PMS/internal/middleware"
	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/internal/repository"
	"github.com/chowchow0048/PMS/internal/service"
	"github.com/chowchow0048/PMS/pkg/cache"
	"github.com/chowchow0048/PMS/pkg/config"
	"github.com/chowchow0048/PMS/pkg/database"
	"github.com/chowchow0048/PMS/pkg/export"
	"github.com/chowchow0048/PMS/pkg/jobs"
	"github.com/chowchow0048/PMS/pkg/logger"
	corsmiddleware "github.com/chowchow0048/PMS/pkg/middleware/cors"
	reqidmiddleware "github.com/chowchow0048/PMS/pkg/middleware/requestid"
)

// @title PMS Clinic Reservation API
// @version 1.0.0
// @description First-come-first-served clinic seat reservation engine
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
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// Repositories.
	clinicRepo := repository.NewClinicRepository(db)
	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	reservationStore := repository.NewReservationStore(db, clinicRepo, userRepo, attendanceRepo)
	attendanceStore := repository.NewAttendanceStore(db, userRepo, attendanceRepo)
	lockRepo := repository.NewLockRepository(redisClient, cfg.Reservation.LockTTL, logr)
	rateRepo := repository.NewRateLimitRepository(redisClient)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled)
	limiterSvc := service.NewRateLimitService(rateRepo, cfg.Reservation.RateLimit, cfg.Reservation.RateLimitWindow, logr)
	scheduleSvc := service.NewScheduleService(clinicRepo, cacheSvc, service.SystemClock(), logr)
	reservationSvc := service.NewReservationService(
		reservationStore, clinicRepo, userRepo, lockRepo, limiterSvc, scheduleSvc,
		metricsSvc, service.SystemClock(), cfg.Reservation, nil, logr)
	attendanceSvc := service.NewAttendanceService(
		attendanceStore, attendanceRepo, clinicRepo, reservationStore,
		export.NewCSVExporter(), export.NewPDFExporter(),
		service.SystemClock(), cfg.Reservation.NoShowPenalty, logr)
	maintenanceSvc := service.NewMaintenanceService(
		clinicRepo, userRepo, attendanceRepo, scheduleSvc,
		service.SystemClock(), cfg.Jobs.AttendanceCleanupAge, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	// Handlers.
	reservationHandler := handler.NewReservationHandler(reservationSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
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

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "postgres": err.Error()})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenSvc))

	clinics := api.Group("/clinics")
	clinics.GET("/weekly-schedule", scheduleHandler.Weekly)
	clinics.GET("/today", scheduleHandler.Today)
	clinics.POST("/reserve", middleware.RateLimitHeaders(limiterSvc), reservationHandler.Reserve)
	clinics.POST("/cancel", middleware.RateLimitHeaders(limiterSvc), reservationHandler.Cancel)

	staffOnly := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	attendances := api.Group("/attendances", staffOnly)
	attendances.GET("", attendanceHandler.List)
	attendances.GET("/export", attendanceHandler.Export)
	attendances.POST("/bulk-create-today", attendanceHandler.BulkCreateToday)
	attendances.PATCH("/:id", attendanceHandler.Update)
	attendances.DELETE("/:id", attendanceHandler.Delete)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maintenanceQueue := startMaintenance(ctx, cfg, maintenanceSvc, logr.Named("jobs"))
	defer maintenanceQueue.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}

const (
	jobWeeklyReset       = "weekly_reset"
	jobAttendanceCleanup = "attendance_cleanup"
)

// startMaintenance launches the background queue that runs the Monday roster
// reset and the daily purge of stale inactive attendance rows.
func startMaintenance(ctx context.Context, cfg *config.Config, svc *service.MaintenanceService, logr *zap.Logger) *jobs.Queue {
	handler := func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case jobWeeklyReset:
			return svc.WeeklyReset(ctx)
		case jobAttendanceCleanup:
			return svc.CleanupInactiveAttendance(ctx)
		default:
			return fmt.Errorf("unknown job type %q", job.Type)
		}
	}

	queue := jobs.NewQueue("maintenance", handler, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Jobs.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)

	go func() {
		cleanup := time.NewTicker(24 * time.Hour)
		defer cleanup.Stop()

		reset := time.NewTimer(untilNextMonday(time.Now()))
		defer reset.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-cleanup.C:
				if err := queue.Enqueue(jobs.Job{Type: jobAttendanceCleanup}); err != nil {
					logr.Sugar().Warnw("failed to enqueue cleanup", "error", err)
				}
			case <-reset.C:
				if cfg.Jobs.WeeklyResetEnabled {
					if err := queue.Enqueue(jobs.Job{Type: jobWeeklyReset}); err != nil {
						logr.Sugar().Warnw("failed to enqueue weekly reset", "error", err)
					}
				}
				reset.Reset(untilNextMonday(time.Now()))
			}
		}
	}()

	return queue
}

// untilNextMonday returns the duration until the coming Monday at midnight
// local time. Called on a Monday it returns the gap to the following one.
func untilNextMonday(now time.Time) time.Duration {
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, days)
	return next.Sub(now)
}
