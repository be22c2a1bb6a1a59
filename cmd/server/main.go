package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appfees "github.com/schoolfee/backend/internal/application/fees"
	appidentity "github.com/schoolfee/backend/internal/application/identity"
	appreport "github.com/schoolfee/backend/internal/application/report"
	appstudents "github.com/schoolfee/backend/internal/application/students"
	"github.com/schoolfee/backend/internal/infrastructure/auth"
	"github.com/schoolfee/backend/internal/infrastructure/cache"
	"github.com/schoolfee/backend/internal/infrastructure/config"
	"github.com/schoolfee/backend/internal/infrastructure/event"
	"github.com/schoolfee/backend/internal/infrastructure/logger"
	"github.com/schoolfee/backend/internal/infrastructure/persistence"
	"github.com/schoolfee/backend/internal/infrastructure/scheduler"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"github.com/schoolfee/backend/internal/interfaces/http/handler"
	"github.com/schoolfee/backend/internal/interfaces/http/middleware"
	"github.com/schoolfee/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("starting school fee management backend",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer provider shutdown failed", zap.Error(err))
		}
	}()

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}()

	if cfg.Telemetry.DBTraceEnabled {
		dbTracingCfg := telemetry.DefaultDBTracingConfig()
		dbTracingCfg.Enabled = true
		if err := telemetry.NewDBTracingPlugin(dbTracingCfg, log).Register(db.DB); err != nil {
			log.Warn("failed to register database tracing plugin", zap.Error(err))
		}
	}

	// Redis is optional. Without it the service falls back to in-memory
	// token blacklisting and report caching, which is fine for a single
	// instance.
	var (
		redisClient    *redis.Client
		tokenBlacklist auth.TokenBlacklist
		reportCache    appreport.ReportCache
	)
	redisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, using in-memory blacklist and cache", zap.Error(err))
		_ = redisClient.Close()
		redisClient = nil
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
		reportCache = cache.NewInMemoryReportCache()
	} else {
		tokenBlacklist = auth.NewRedisTokenBlacklist(redisClient)
		reportCache = cache.NewRedisReportCache(redisClient, log)
	}
	pingCancel()

	// Repositories
	studentRepo := persistence.NewGormStudentRepository(db.DB)
	feeStructureRepo := persistence.NewGormFeeStructureRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	feeBalanceRepo := persistence.NewGormFeeBalanceRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	feeReportRepo := persistence.NewGormFeeReportRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Warn("event bus stop failed", zap.Error(err))
		}
	}()

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := appidentity.NewAuthService(userRepo, jwtService, tokenBlacklist, appidentity.DefaultAuthServiceConfig(), log)
	userService := appidentity.NewUserService(userRepo, log)
	studentService := appstudents.NewStudentService(studentRepo, eventBus)
	feeStructureService := appfees.NewFeeStructureService(feeStructureRepo, eventBus)
	assignmentService := appfees.NewAssignmentService(uow, feeBalanceRepo, feeStructureRepo, studentRepo, eventBus)
	paymentService := appfees.NewPaymentService(uow, paymentRepo, eventBus)
	reconciliationService := appfees.NewReconciliationService(uow, eventBus)
	balanceService := appfees.NewBalanceService(feeBalanceRepo)
	reportService := appreport.NewFeeReportService(feeReportRepo, reportCache, log)

	// Scheduled jobs
	var sched *scheduler.DailyScheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.NewDailyScheduler(scheduler.Config{
			Enabled:           cfg.Scheduler.Enabled,
			DailyCronSchedule: cfg.Scheduler.DailyCronSchedule,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, log)
		if err != nil {
			log.Fatal("failed to create scheduler", zap.Error(err))
		}
		sched.Register(scheduler.NewReconcileSweepJob(feeStructureRepo, reconciliationService, log))
		sched.Register(scheduler.NewReportRefreshJob(reportService, log))
		if err := sched.Start(ctx); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop(context.Background())
	}

	// Handlers
	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Student:      handler.NewStudentHandler(studentService),
		FeeStructure: handler.NewFeeStructureHandler(feeStructureService),
		Assignment:   handler.NewAssignmentHandler(assignmentService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Balance:      handler.NewBalanceHandler(balanceService, reconciliationService),
		Report:       handler.NewReportHandler(reportService),
		System:       handler.NewSystemHandler(db, redisClient, sched, version),
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		handlers.AuthRateLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("failed to set trusted proxies", zap.Error(err))
		}
	}

	router.RegisterHealth(engine, handlers)

	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.TokenBlacklist = tokenBlacklist
	jwtCfg.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.TracingAttributeInjector(),
	)
	router.RegisterAll(r, handlers)
	r.Setup()

	srv := &http.Server{
		Addr:           cfg.App.ListenAddr(),
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
