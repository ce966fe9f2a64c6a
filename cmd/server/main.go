package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/vendorbill/backend/internal/application/billing"
	eventapp "github.com/vendorbill/backend/internal/application/event"
	"github.com/vendorbill/backend/internal/infrastructure/auth"
	"github.com/vendorbill/backend/internal/infrastructure/cache"
	"github.com/vendorbill/backend/internal/infrastructure/config"
	"github.com/vendorbill/backend/internal/infrastructure/event"
	"github.com/vendorbill/backend/internal/infrastructure/logger"
	"github.com/vendorbill/backend/internal/infrastructure/persistence"
	"github.com/vendorbill/backend/internal/infrastructure/scheduler"
	"github.com/vendorbill/backend/internal/infrastructure/telemetry"
	"github.com/vendorbill/backend/internal/interfaces/http/handler"
	"github.com/vendorbill/backend/internal/interfaces/http/middleware"
	"github.com/vendorbill/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Vendor Billing API
//	@version		1.0
//	@description	Receivable numbering, payment allocation and customer ledgers for small vendors

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.Telemetry.ServiceName,
		Env:        cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		log = telemetry.Bridge(log, loggerProvider.Core(zapcore.InfoLevel))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileMutexes:  true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting vendor billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	var plugins []persistence.Plugin
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugins = append(plugins, telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log))
	}
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog, plugins...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if stats, err := db.Stats(); err == nil {
		log.Info("Database connected",
			zap.Int("max_open_connections", stats.MaxOpenConnections),
			zap.Int("open_connections", stats.OpenConnections),
		)
	}

	billingMetrics, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{
		Meter:  meterProvider.Meter("vendorbill/billing"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create billing metrics", zap.Error(err))
	}

	// Repositories
	vendorRepo := persistence.NewGormVendorRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(db.DB)
	receivableRepo := persistence.NewGormReceivableRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Billing events are written to the outbox inside the business transaction
	eventSerializer := event.NewBillingEventSerializer()
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	txScope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(context.Background())
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Application services
	vendorService := billingapp.NewVendorService(vendorRepo)
	customerService := billingapp.NewCustomerService(vendorRepo, customerRepo)
	sequenceService := billingapp.NewSequenceService(vendorRepo, sequenceRepo, txScope)
	paymentService := billingapp.NewPaymentService(paymentRepo, receivableRepo, customerRepo, txScope,
		billingapp.WithPaymentConfig(billingapp.PaymentServiceConfig{
			MaxAttempts:    cfg.Billing.MaxAllocationRetries,
			RetryBackoff:   cfg.Billing.RetryBackoff,
			IdempotencyTTL: cfg.Billing.IdempotencyTTL,
		}),
		billingapp.WithIdempotencyStore(idempotencyStore),
		billingapp.WithPaymentMetrics(billingMetrics),
		billingapp.WithPaymentLogger(log),
	)
	receivableService := billingapp.NewReceivableService(receivableRepo, txScope, paymentService,
		billingapp.WithReceivableMetrics(billingMetrics),
	)
	ledgerService := billingapp.NewLedgerService(customerRepo, receivableRepo, txScope,
		billingapp.WithDefaultWindow(cfg.Billing.LedgerDefaultWindow),
	)
	notificationService := billingapp.NewNotificationService(notificationRepo)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Event bus and outbox delivery
	eventBus := event.NewInMemoryEventBus(log)
	notificationHandler := event.NewIdempotentHandler(
		billingapp.NewNotificationHandler(notificationRepo, log),
		idempotencyStore,
		log,
		event.WithHandlerName("notifications"),
	)
	eventBus.Subscribe(notificationHandler)
	log.Info("Event handlers registered", zap.Strings("notification_events", notificationHandler.EventTypes()))

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	outboxConfig := event.DefaultOutboxProcessorConfig()
	if cfg.Outbox.PollInterval > 0 {
		outboxConfig.PollInterval = cfg.Outbox.PollInterval
	}
	if cfg.Outbox.BatchSize > 0 {
		outboxConfig.BatchSize = cfg.Outbox.BatchSize
	}
	if cfg.Outbox.CleanupRetention > 0 {
		outboxConfig.CleanupRetention = cfg.Outbox.CleanupRetention
	}
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxConfig, log)
	if err := outboxProcessor.Start(context.Background()); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		if err := outboxProcessor.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}()

	// Payment reminders
	if cfg.Reminder.Enabled {
		reminderConfig := billingapp.DefaultReminderConfig()
		if cfg.Reminder.AfterDays > 0 {
			reminderConfig.AfterDays = cfg.Reminder.AfterDays
		}
		if cfg.Reminder.BatchSize > 0 {
			reminderConfig.BatchSize = cfg.Reminder.BatchSize
		}
		reminderService := billingapp.NewReminderService(receivableRepo, notificationRepo, reminderConfig, billingMetrics, log)

		jobScheduler := scheduler.New(scheduler.DefaultConfig(), log)
		if err := jobScheduler.Register(cfg.Reminder.Schedule, scheduler.NewReminderJob(reminderService)); err != nil {
			log.Fatal("Failed to register reminder job", zap.Error(err))
		}
		if err := jobScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Reminder job scheduled",
			zap.String("schedule", cfg.Reminder.Schedule),
			zap.Int("after_days", reminderConfig.AfterDays),
		)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.DefaultHTTPMetricsConfig())
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	// Order matters: the request ID must exist before the access log and the
	// span, and panics are recovered inside the tracing span.
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(httpMetrics.Middleware())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(1 << 20))
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	healthHandler := handler.NewHealthHandler(sqlDB, version)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/metrics", httpMetrics.Handler())

	var jwtService *auth.JWTService
	if cfg.JWT.Enabled {
		jwtService = auth.NewJWTService(cfg.JWT)
	} else {
		log.Warn("JWT disabled, trusting the X-Vendor-ID header")
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	skipPaths := make([]string, 0, len(router.PublicPaths))
	for _, p := range router.PublicPaths {
		skipPaths = append(skipPaths, r.APIPath(p))
	}
	r.Use(middleware.VendorAuth(middleware.VendorAuthConfig{
		JWTService: jwtService,
		SkipPaths:  skipPaths,
		Logger:     log,
	}))
	r.Use(middleware.TracingAttributeInjector())
	r.Use(middleware.Profiling(middleware.ProfilingConfig{Enabled: profiler.IsEnabled()}))

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		r.Use(middleware.RateLimit(limiter))
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-limiterCtx.Done():
					return
				case <-ticker.C:
					if n := limiter.Cleanup(); n > 0 {
						log.Debug("Rate limiter buckets evicted", zap.Int("count", n))
					}
				}
			}
		}()
	}

	router.RegisterBilling(r, router.Handlers{
		Vendor:       handler.NewVendorHandler(vendorService, jwtService),
		Customer:     handler.NewCustomerHandler(customerService),
		Ledger:       handler.NewLedgerHandler(ledgerService, paymentService),
		Settings:     handler.NewSettingsHandler(sequenceService),
		Receivable:   handler.NewReceivableHandler(receivableService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Notification: handler.NewNotificationHandler(notificationService),
		Outbox:       handler.NewOutboxHandler(outboxService),
	}).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited")
}
