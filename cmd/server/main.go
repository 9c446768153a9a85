package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	analyticsapp "github.com/markethub/backend/internal/application/analytics"
	automationapp "github.com/markethub/backend/internal/application/automation"
	backupapp "github.com/markethub/backend/internal/application/backup"
	bulkapp "github.com/markethub/backend/internal/application/bulk"
	catalogapp "github.com/markethub/backend/internal/application/catalog"
	identityapp "github.com/markethub/backend/internal/application/identity"
	integrationapp "github.com/markethub/backend/internal/application/integration"
	mobileapp "github.com/markethub/backend/internal/application/mobile"
	orderapp "github.com/markethub/backend/internal/application/order"
	securityapp "github.com/markethub/backend/internal/application/security"
	syncapp "github.com/markethub/backend/internal/application/sync"
	"github.com/markethub/backend/internal/domain/identity"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/infrastructure/auth"
	backupinfra "github.com/markethub/backend/internal/infrastructure/backup"
	"github.com/markethub/backend/internal/infrastructure/cache"
	"github.com/markethub/backend/internal/infrastructure/config"
	"github.com/markethub/backend/internal/infrastructure/logger"
	"github.com/markethub/backend/internal/infrastructure/persistence"
	"github.com/markethub/backend/internal/infrastructure/scheduler"
	"github.com/markethub/backend/internal/infrastructure/storage"
	"github.com/markethub/backend/internal/infrastructure/telemetry"
	"github.com/markethub/backend/internal/interfaces/http/handler"
	"github.com/markethub/backend/internal/interfaces/http/middleware"
	"github.com/markethub/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			MarketHub Backend API
//	@version		1.0
//	@description	E-commerce back-office API: catalog, orders, integrations, analytics and platform administration

//	@contact.name	API Support
//	@contact.url	https://github.com/markethub/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is stamped at build time via -ldflags
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Optionally tee logs to the OTEL collector alongside stdout
	if cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled {
		logsProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Warn("Failed to initialize OTEL logs export", zap.Error(err))
		} else {
			otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
				ServiceName:    cfg.Telemetry.ServiceName,
				LoggerProvider: logsProvider,
				Level:          logger.ParseLevel(cfg.Log.Level),
			})
			log = telemetry.NewBridgedLogger(log.Core(), otelCore,
				zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
			defer func() {
				if err := logsProvider.Shutdown(context.Background()); err != nil {
					log.Error("Error shutting down logger provider", zap.Error(err))
				}
			}()
		}
	}

	log.Info("Starting MarketHub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	screenRepo := persistence.NewGormScreenConfigRepository(db.DB)
	securityEventRepo := persistence.NewGormSecurityEventRepository(db.DB)
	alertRepo := persistence.NewGormAlertRepository(db.DB)
	ruleRepo := persistence.NewGormRuleRepository(db.DB)
	bulkOpRepo := persistence.NewGormBulkOperationRepository(db.DB)
	backupRepo := persistence.NewGormBackupRepository(db.DB)
	changeFeedRepo := persistence.NewGormChangeFeedRepository(db.DB)

	// Dashboard cache: Redis when reachable, in-memory fallback for
	// single-node setups
	cacheFactory := cache.NewCacheFactory(cfg.Redis, cache.WithLogger(log))
	dashboardCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() {
		if err := dashboardCache.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()
	var redisClient *redis.Client
	if rc, ok := dashboardCache.(*cache.RedisCache); ok {
		redisClient = rc.GetClient()
	}

	// Change feed: every admin mutation lands here; clients consume it
	// by cursor polling or SSE
	recorder := syncapp.NewRecorder(changeFeedRepo, log)
	realtime := syncapp.NewRealtimeService(changeFeedRepo, log,
		syncapp.WithPollInterval(cfg.Sync.PollInterval),
		syncapp.WithBatchSize(cfg.Sync.BatchSize),
	)
	if err := realtime.Start(context.Background()); err != nil {
		log.Fatal("Failed to start realtime service", zap.Error(err))
	}
	defer realtime.Stop()

	// Security trail and alerting
	securityEvents := securityapp.NewEventService(securityEventRepo, log)
	alertService := securityapp.NewAlertService(alertRepo, log)
	monitor := securityapp.NewMonitor(securityEventRepo, alertService, securityapp.MonitorConfig{
		Window:                    cfg.Security.Window,
		FailedLoginThreshold:      cfg.Security.FailedLoginThreshold,
		PermissionDeniedThreshold: cfg.Security.PermissionDeniedThreshold,
		VolumeSigma:               cfg.Security.VolumeSigma,
	}, log)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(userRepo, jwtService, securityEvents,
		identityapp.AuthServiceConfig{LockThreshold: cfg.Security.LockThreshold}, log)
	userService := identityapp.NewUserService(userRepo, roleRepo, recorder, log)
	roleService := identityapp.NewRoleService(roleRepo, log)

	// Catalog and order services
	productService := catalogapp.NewProductService(productRepo, categoryRepo, recorder, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, productRepo, log)
	orderService := orderapp.NewOrderService(orderRepo, productRepo, recorder, log)

	// Integrations and mobile screen configuration
	integrationService := integrationapp.NewIntegrationService(integrationRepo, recorder, log)
	screenService := mobileapp.NewScreenService(screenRepo, recorder, log)

	// Analytics
	dashboardService := analyticsapp.NewDashboardService(orderRepo, productRepo, userRepo, dashboardCache, log)
	predictiveService := analyticsapp.NewPredictiveService(orderRepo, log)

	// Automation rules and the engine that executes them
	ruleService := automationapp.NewRuleService(ruleRepo, recorder, log)
	ruleEngine := automationapp.NewEngine(ruleRepo, productRepo, orderRepo, productService, orderService, alertService, log)
	ruleConsumer := automationapp.NewConsumer(realtime, ruleEngine, log)
	ruleConsumer.Start()
	defer ruleConsumer.Stop()

	// Bulk operations reuse the same service slices as the engine
	bulkRunner := bulkapp.NewHandler(bulkOpRepo, productService, orderService, log)

	// Backups: pg_dump with JSON export fallback, optional S3 upload
	backupRunner := backupinfra.NewPgRunner(cfg.Database, db.DB, backupinfra.WithLogger(log))
	var backupStore backupapp.ObjectStore
	if cfg.Backup.UploadEnabled {
		s3Store, err := storage.NewS3ObjectStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize backup object store", zap.Error(err))
		}
		backupStore = s3Store
	}
	backupService := backupapp.NewBackupService(backupRepo, backupRunner, backupStore, cfg.Backup.Dir, log)

	// Telemetry (optional): traces, metrics, continuous profiling
	var meterProvider *telemetry.MeterProvider
	if cfg.Telemetry.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			SamplingRatio:     cfg.Telemetry.SamplingRatio,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize tracer provider", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()

		meterProvider, err = telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize meter provider", zap.Error(err))
		}
		defer func() {
			if err := meterProvider.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()

		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log); err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		}
		if cfg.Telemetry.DBTraceEnabled {
			dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
				Enabled:         true,
				SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			}, log)
			if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
				log.Warn("Failed to register database tracing", zap.Error(err))
			}
		}

		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:         meterProvider.Meter("markethub.business"),
			Logger:        log,
			GaugeProvider: telemetry.NewGormGaugeProvider(db.DB, realtime),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(context.Background(), time.Minute)
			defer businessMetrics.Stop()
		}

		profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:           cfg.Telemetry.ProfilerEnabled,
			ServerAddress:     cfg.Telemetry.ProfilerAddress,
			ApplicationName:   cfg.Telemetry.ServiceName,
			ProfileCPU:        true,
			ProfileInuseSpace: true,
			ProfileGoroutines: true,
		}, log)
		if err != nil {
			log.Warn("Failed to start profiler", zap.Error(err))
		} else {
			defer func() {
				if err := profiler.Stop(); err != nil {
					log.Error("Error stopping profiler", zap.Error(err))
				}
			}()
			if cfg.Telemetry.ProfilerEnabled {
				// Links CPU profiles to span IDs so flame graphs can be
				// filtered per trace in Pyroscope.
				if err := tracerProvider.EnableSpanProfiles(); err != nil {
					log.Warn("Failed to enable span profiles", zap.Error(err))
				}
			}
		}
	}

	// Background jobs: security scans, retention sweeps, automation ticks
	jobs := []scheduler.Job{
		scheduler.SecurityScanJob(cfg.Security, monitor),
		scheduler.SecurityRetentionJob(cfg.Security, securityEvents, log),
		scheduler.ChangeFeedRetentionJob(cfg.Sync, changeFeedRepo, log),
		scheduler.BackupRetentionJob(cfg.Backup, backupService, log),
	}
	if cfg.Automation.Enabled {
		jobs = append(jobs, scheduler.AutomationJob(cfg.Automation, ruleEngine))
	}
	sched := scheduler.NewScheduler(log, jobs...)
	if err := sched.Start(context.Background()); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer func() {
		if err := sched.Stop(context.Background()); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}()
	log.Info("Scheduler started", zap.Int("jobs", len(jobs)))

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService, userService, blacklist, log)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleService)
	productHandler := handler.NewProductHandler(productService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	orderHandler := handler.NewOrderHandler(orderService)
	integrationHandler := handler.NewIntegrationHandler(integrationService)
	mobileHandler := handler.NewMobileScreenHandler(screenService)
	analyticsHandler := handler.NewAnalyticsHandler(dashboardService, predictiveService)
	securityHandler := handler.NewSecurityHandler(securityEvents, alertService)
	automationHandler := handler.NewAutomationHandler(ruleService, ruleEngine)
	bulkHandler := handler.NewBulkHandler(bulkRunner)
	backupHandler := handler.NewBackupHandler(backupService)
	syncHandler := handler.NewSyncHandler(realtime, changeFeedRepo, log)
	systemHandler := handler.NewSystemHandler(db.DB, redisClient, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. Tracing/Metrics - When telemetry is enabled
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}
	if cfg.Telemetry.ProfilerEnabled {
		engine.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))
	}

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// JWT authentication with a skip list for the public surface
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/mobile/screens/live",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	// Permission denials land in the security trail
	permCfg := middleware.PermissionConfig{
		Logger: log,
		OnDenied: func(c *gin.Context, requiredPerms []string) {
			securityEvents.Record(c.Request.Context(), security.EventPermissionDenied, security.SeverityWarning,
				middleware.GetJWTUsername(c), c.ClientIP(), map[string]any{
					"path":     c.Request.URL.Path,
					"method":   c.Request.Method,
					"required": requiredPerms,
				})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_FORBIDDEN",
					"message": "Access denied: insufficient permissions",
				},
			})
		},
	}
	requireAny := func(perms ...string) gin.HandlerFunc {
		return middleware.RequireAnyPermissionWithConfig(permCfg, append(perms, identity.PermissionAll)...)
	}

	// Login endpoints get a tighter rate limit than the rest of the API
	var authLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authLimit = middleware.AuthRateLimit(authLimiter)
	} else {
		authLimit = func(c *gin.Context) { c.Next() }
	}

	// Auth (login/refresh are public via skip paths, the rest need a token)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authLimit, authHandler.Login)
	authRoutes.POST("/refresh", authLimit, authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	// User management
	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.Use(requireAny(identity.PermissionUsersManage))
	userRoutes.POST("", userHandler.Create)
	userRoutes.GET("", userHandler.List)
	userRoutes.GET("/:id", userHandler.GetByID)
	userRoutes.PUT("/:id", userHandler.Update)
	userRoutes.PUT("/:id/status", userHandler.SetStatus)
	userRoutes.PUT("/:id/roles", userHandler.AssignRoles)
	userRoutes.PUT("/:id/password", userHandler.ResetPassword)
	userRoutes.DELETE("/:id", userHandler.Delete)

	// Role management
	roleRoutes := router.NewDomainGroup("roles", "/roles")
	roleRoutes.Use(requireAny(identity.PermissionUsersManage))
	roleRoutes.POST("", roleHandler.Create)
	roleRoutes.GET("", roleHandler.List)
	roleRoutes.GET("/:id", roleHandler.GetByID)
	roleRoutes.PUT("/:id", roleHandler.Update)
	roleRoutes.DELETE("/:id", roleHandler.Delete)

	// Catalog: reads for any authenticated user, writes need products:manage
	catalogRoutes := router.NewDomainGroup("catalog", "/catalog")
	manageProducts := requireAny(identity.PermissionProductsManage)
	catalogRoutes.POST("/products", manageProducts, productHandler.Create)
	catalogRoutes.GET("/products", productHandler.List)
	catalogRoutes.GET("/products/low-stock", productHandler.ListLowStock)
	catalogRoutes.GET("/products/sku/:sku", productHandler.GetBySKU)
	catalogRoutes.GET("/products/:id", productHandler.GetByID)
	catalogRoutes.PUT("/products/:id", manageProducts, productHandler.Update)
	catalogRoutes.POST("/products/:id/stock", manageProducts, productHandler.AdjustStock)
	catalogRoutes.PUT("/products/:id/status", manageProducts, productHandler.SetStatus)
	catalogRoutes.DELETE("/products/:id", manageProducts, productHandler.Delete)
	catalogRoutes.POST("/categories", manageProducts, categoryHandler.Create)
	catalogRoutes.GET("/categories", categoryHandler.List)
	catalogRoutes.PUT("/categories/:id", manageProducts, categoryHandler.Update)
	catalogRoutes.PUT("/categories/:id/enabled", manageProducts, categoryHandler.SetEnabled)
	catalogRoutes.DELETE("/categories/:id", manageProducts, categoryHandler.Delete)

	// Orders: reads for any authenticated user, writes need orders:manage
	orderRoutes := router.NewDomainGroup("orders", "/orders")
	manageOrders := requireAny(identity.PermissionOrdersManage)
	orderRoutes.POST("", manageOrders, orderHandler.Create)
	orderRoutes.GET("", orderHandler.List)
	orderRoutes.GET("/status-summary", orderHandler.StatusSummary)
	orderRoutes.GET("/number/:number", orderHandler.GetByNumber)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.POST("/:id/pay", manageOrders, orderHandler.MarkPaid)
	orderRoutes.PUT("/:id/shipping", manageOrders, orderHandler.UpdateShipping)
	orderRoutes.POST("/:id/fulfil", manageOrders, orderHandler.Fulfil)
	orderRoutes.POST("/:id/complete", manageOrders, orderHandler.Complete)
	orderRoutes.POST("/:id/cancel", manageOrders, orderHandler.Cancel)
	orderRoutes.POST("/:id/refund", manageOrders, orderHandler.Refund)
	orderRoutes.PUT("/:id/status", manageOrders, orderHandler.SetStatus)

	// Marketplace integrations
	integrationRoutes := router.NewDomainGroup("integrations", "/integrations")
	integrationRoutes.Use(requireAny(identity.PermissionIntegrations))
	integrationRoutes.POST("", integrationHandler.Create)
	integrationRoutes.GET("", integrationHandler.List)
	integrationRoutes.GET("/:id", integrationHandler.GetByID)
	integrationRoutes.PUT("/:id/credentials", integrationHandler.SetCredentials)
	integrationRoutes.PUT("/:id/settings", integrationHandler.SetSettings)
	integrationRoutes.POST("/:id/test", integrationHandler.TestConnection)
	integrationRoutes.POST("/:id/syncs", integrationHandler.RecordSync)
	integrationRoutes.PUT("/:id/enabled", integrationHandler.SetEnabled)
	integrationRoutes.POST("/:id/disconnect", integrationHandler.Disconnect)
	integrationRoutes.DELETE("/:id", integrationHandler.Delete)

	// Analytics
	analyticsRoutes := router.NewDomainGroup("analytics", "/analytics")
	analyticsRoutes.Use(requireAny(identity.PermissionAnalyticsView))
	analyticsRoutes.GET("/dashboard", analyticsHandler.Dashboard)
	analyticsRoutes.GET("/trends", analyticsHandler.Trend)

	// Mobile screen configuration; /screens/live is the public surface
	// mobile apps boot from
	mobileRoutes := router.NewDomainGroup("mobile", "/mobile")
	manageScreens := requireAny(identity.PermissionMobileConfig)
	mobileRoutes.GET("/screens/live", mobileHandler.ListLive)
	mobileRoutes.POST("/screens", manageScreens, mobileHandler.Create)
	mobileRoutes.GET("/screens", manageScreens, mobileHandler.List)
	mobileRoutes.GET("/screens/key/:key", manageScreens, mobileHandler.GetByScreenKey)
	mobileRoutes.GET("/screens/:id", manageScreens, mobileHandler.GetByID)
	mobileRoutes.PUT("/screens/:id", manageScreens, mobileHandler.Update)
	mobileRoutes.POST("/screens/:id/publish", manageScreens, mobileHandler.Publish)
	mobileRoutes.POST("/screens/:id/unpublish", manageScreens, mobileHandler.Unpublish)
	mobileRoutes.POST("/screens/:id/archive", manageScreens, mobileHandler.Archive)
	mobileRoutes.DELETE("/screens/:id", manageScreens, mobileHandler.Delete)

	// Security monitoring
	securityRoutes := router.NewDomainGroup("security", "/security")
	securityRoutes.Use(requireAny(identity.PermissionSecurityView))
	securityRoutes.GET("/events", securityHandler.ListEvents)
	securityRoutes.GET("/alerts", securityHandler.ListAlerts)
	securityRoutes.POST("/alerts/:id/acknowledge", securityHandler.AcknowledgeAlert)
	securityRoutes.POST("/alerts/:id/resolve", securityHandler.ResolveAlert)

	// Bulk operations
	bulkRoutes := router.NewDomainGroup("bulk", "/bulk")
	bulkRoutes.Use(requireAny(identity.PermissionBulkExecute))
	bulkRoutes.POST("/operations", bulkHandler.Submit)
	bulkRoutes.GET("/operations", bulkHandler.List)
	bulkRoutes.GET("/operations/:id", bulkHandler.GetByID)

	// Automation rules
	automationRoutes := router.NewDomainGroup("automation", "/automation")
	automationRoutes.Use(requireAny(identity.PermissionAutomationManage))
	automationRoutes.POST("/rules", automationHandler.Create)
	automationRoutes.GET("/rules", automationHandler.List)
	automationRoutes.GET("/rules/:id", automationHandler.GetByID)
	automationRoutes.PUT("/rules/:id", automationHandler.Update)
	automationRoutes.PUT("/rules/:id/enabled", automationHandler.SetEnabled)
	automationRoutes.POST("/rules/:id/run", automationHandler.Run)
	automationRoutes.DELETE("/rules/:id", automationHandler.Delete)

	// Backups
	backupRoutes := router.NewDomainGroup("backups", "/backups")
	backupRoutes.Use(requireAny(identity.PermissionBackupManage))
	backupRoutes.POST("", backupHandler.Run)
	backupRoutes.GET("", backupHandler.List)
	backupRoutes.GET("/:id", backupHandler.GetByID)
	backupRoutes.POST("/:id/restore", backupHandler.Restore)
	backupRoutes.DELETE("/:id", backupHandler.Delete)

	// Change feed: cursor polling and SSE for any authenticated client
	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.GET("/changes", syncHandler.Changes)
	syncRoutes.GET("/stream", syncHandler.Stream)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/db-stats", systemHandler.DBStats)

	r.Register(authRoutes).
		Register(userRoutes).
		Register(roleRoutes).
		Register(catalogRoutes).
		Register(orderRoutes).
		Register(integrationRoutes).
		Register(analyticsRoutes).
		Register(mobileRoutes).
		Register(securityRoutes).
		Register(bulkRoutes).
		Register(automationRoutes).
		Register(backupRoutes).
		Register(syncRoutes).
		Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config. WriteTimeout stays off: it is
	// measured from the start of the request and would sever the
	// long-lived /sync/stream SSE connections.
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
