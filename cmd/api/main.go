package main

// @title ObraMap API
// @version 1.0
// @description Construction-site prospecting on a map: obras, regions, goals and dashboards.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/jordanlanch/obramap/config"
	apierrors "github.com/jordanlanch/obramap/pkg/api/errors"
	"github.com/jordanlanch/obramap/pkg/api/handlers"
	"github.com/jordanlanch/obramap/pkg/auth"
	"github.com/jordanlanch/obramap/pkg/blob"
	"github.com/jordanlanch/obramap/pkg/cache"
	"github.com/jordanlanch/obramap/pkg/database"
	"github.com/jordanlanch/obramap/pkg/email"
	"github.com/jordanlanch/obramap/pkg/goals"
	"github.com/jordanlanch/obramap/pkg/jobs"
	"github.com/jordanlanch/obramap/pkg/leadlifecycle"
	"github.com/jordanlanch/obramap/pkg/logger"
	"github.com/jordanlanch/obramap/pkg/mapeditor"
	"github.com/jordanlanch/obramap/pkg/metrics"
	custommiddleware "github.com/jordanlanch/obramap/pkg/middleware"
	"github.com/jordanlanch/obramap/pkg/models"
	"github.com/jordanlanch/obramap/pkg/obras"
	"github.com/jordanlanch/obramap/pkg/phone"
	"github.com/jordanlanch/obramap/pkg/session"
	"github.com/jordanlanch/obramap/pkg/store"
	"github.com/jordanlanch/obramap/pkg/store/gormstore"
	"github.com/jordanlanch/obramap/pkg/store/mongostore"
	"github.com/jordanlanch/obramap/pkg/workspace"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	log.Info("configuration loaded", "environment", cfg.APIEnvironment)
	apierrors.SetLogger(log)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn("failed to initialize sentry", "error", err)
		} else {
			log.Info("sentry initialized", "environment", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	}

	var err error
	dsn := cfg.DatabaseURL
	if cfg.DatabaseDriver == database.DriverPostgres {
		dsn, err = database.BuildConnectionString(cfg.DatabaseURL, &database.SSLConfig{
			Mode:         cfg.DBSSLMode,
			CertPath:     cfg.DBSSLCertPath,
			KeyPath:      cfg.DBSSLKeyPath,
			RootCertPath: cfg.DBSSLRootCertPath,
		})
		if err != nil {
			log.Error("invalid database url", "error", err)
			os.Exit(1)
		}
	}
	db, err := database.NewClient(cfg.DatabaseDriver, dsn, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ds, err := openDocumentStore(cfg, db, log)
	if err != nil {
		log.Error("failed to open document store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ds.Close(ctx)
	}()

	redisClient, err := cache.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	blobs, localFiles, err := openBlobStore(cfg)
	if err != nil {
		log.Error("failed to open file storage", "type", cfg.StorageType, "error", err)
		os.Exit(1)
	}

	promMetrics := metrics.New()
	hub := session.NewHub()
	mailer := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.FrontendURL, cfg.SendGridAPIKey, log)

	authService := auth.NewService(db.DB, redisClient, mailer, hub, promMetrics, auth.Config{
		JWTSecret:          cfg.JWTSecret,
		JWTExpirationHours: cfg.JWTExpirationHours,
	}, log)
	if err := authService.Migrate(); err != nil {
		log.Error("failed to migrate accounts", "error", err)
		os.Exit(1)
	}

	threshold := time.Duration(cfg.AgingThresholdDays) * 24 * time.Hour
	lifecycle := leadlifecycle.NewService(ds, threshold, promMetrics, log)
	obraService := obras.NewService(ds, blobs, phone.NewNormalizer(cfg.PhoneDefaultRegion), promMetrics, log)
	goalsService := goals.NewService(ds, log).WithLocation(cfg.Location)
	regionService := mapeditor.NewRegionService(ds, mapeditor.NewSessionStore(redisClient), promMetrics, log)
	workspaceService := workspace.NewService(ds, goalsService, lifecycle, regionService, log)

	unsubscribe := hub.Subscribe(workspaceService.HandleSessionEvent)
	defer unsubscribe()

	monitor := jobs.NewAgingMonitor(ds, lifecycle, log)
	cronManager := jobs.NewCronManager(monitor, log)
	if err := cronManager.SetupJobs(cfg.AgingCronSchedule); err != nil {
		log.Error("failed to schedule aging sweep", "schedule", cfg.AgingCronSchedule, "error", err)
		os.Exit(1)
	}
	cronManager.Start()

	e := echo.New()
	e.HideBanner = true

	rateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommiddleware.NewRateLimiter(10, 3)
	defer rateLimiter.Close()
	defer authRateLimiter.Close()

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	}
	e.Use(promMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(rateLimiter.RateLimitMiddleware())

	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"database": db,
		"store":    ds,
		"cache":    redisClient,
	}, monitor)
	e.GET("/health", healthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(authService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService, lifecycle)
	obraHandler := handlers.NewObraHandler(obraService, lifecycle)
	mapHandler := handlers.NewMapHandler(regionService, obraService, models.LatLng{Lat: cfg.MapDefaultLat, Lng: cfg.MapDefaultLng}, cfg.Location)
	goalsHandler := handlers.NewGoalsHandler(goalsService, obraService, promMetrics)

	requireSession := custommiddleware.RequireSession(authService)

	if localFiles != nil {
		filesHandler := handlers.NewFilesHandler(localFiles)
		e.GET("/files/*", filesHandler.Serve, custommiddleware.RequireSessionFromQueryOrHeader(authService))
	}

	v1 := e.Group("/api/v1")
	v1.GET("/ping", healthHandler.Ping)

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.SignUp, authRateLimiter.RateLimitMiddleware())
		authGroup.POST("/login", authHandler.Login, authRateLimiter.RateLimitMiddleware())
		authGroup.GET("/verify-email/:token", authHandler.VerifyEmail)
		authGroup.POST("/resend-verification", authHandler.ResendVerification, authRateLimiter.RateLimitMiddleware())
		authGroup.POST("/forgot-password", authHandler.ForgotPassword, authRateLimiter.RateLimitMiddleware())
		authGroup.POST("/reset-password", authHandler.ResetPassword, authRateLimiter.RateLimitMiddleware())

		authGroup.POST("/logout", authHandler.Logout, requireSession)
		authGroup.GET("/me", authHandler.Me, requireSession)
		authGroup.POST("/change-password", authHandler.ChangePassword, requireSession)
		authGroup.DELETE("/account", authHandler.DisableAccount, requireSession)
	}

	protected := v1.Group("", requireSession)
	{
		protected.GET("/workspace", workspaceHandler.Load)
		protected.POST("/workspace/sweep", workspaceHandler.Sweep)

		obrasGroup := protected.Group("/obras")
		obrasGroup.GET("", obraHandler.List)
		obrasGroup.POST("", obraHandler.Create)
		obrasGroup.GET("/:id", obraHandler.Get)
		obrasGroup.PUT("/:id", obraHandler.Update)
		obrasGroup.PATCH("/:id/stage", obraHandler.ChangeStage)
		obrasGroup.POST("/:id/contacts", obraHandler.AddContact)
		obrasGroup.DELETE("/:id/contacts/:itemId", obraHandler.RemoveContact)
		obrasGroup.POST("/:id/tasks", obraHandler.AddTask)
		obrasGroup.POST("/:id/tasks/:itemId/complete", obraHandler.CompleteTask)
		obrasGroup.POST("/:id/tasks/:itemId/reopen", obraHandler.ReopenTask)
		obrasGroup.DELETE("/:id/tasks/:itemId", obraHandler.RemoveTask)
		obrasGroup.POST("/:id/proposals", obraHandler.AddProposal)
		obrasGroup.DELETE("/:id/proposals/:itemId", obraHandler.RemoveProposal)
		obrasGroup.POST("/:id/photos", obraHandler.UpdatePhotos)
		obrasGroup.GET("/:id/files/url", obraHandler.FileURL)
		obrasGroup.GET("/:id/directions", obraHandler.Directions)
		protected.GET("/tasks/pending", obraHandler.PendingTasks)

		mapGroup := protected.Group("/map")
		mapGroup.GET("/regions", mapHandler.ListRegions)
		mapGroup.POST("/regions", mapHandler.CreateRegion)
		mapGroup.DELETE("/regions/:id", mapHandler.DeleteRegion)
		mapGroup.GET("/drawing", mapHandler.CurrentDrawing)
		mapGroup.POST("/drawing", mapHandler.BeginDrawing)
		mapGroup.DELETE("/drawing", mapHandler.CancelDrawing)
		mapGroup.POST("/drawing/save", mapHandler.SaveDrawing)
		mapGroup.POST("/taps", mapHandler.Tap)
		mapGroup.GET("/route/today", mapHandler.TodayRoute)
		mapGroup.POST("/route", mapHandler.BuildRoute)
		mapGroup.POST("/center", mapHandler.Center)
		mapGroup.POST("/recenter", mapHandler.Recenter)

		protected.GET("/goals", goalsHandler.ListMonths)
		protected.GET("/goals/:month", goalsHandler.Get)
		protected.PUT("/goals/:month", goalsHandler.Update)
		protected.GET("/dashboard", goalsHandler.Dashboard)
	}

	// Download links are opened by the browser, which cannot set headers.
	v1.GET("/export.xlsx", goalsHandler.Export, custommiddleware.RequireSessionFromQueryOrHeader(authService))

	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Info("api starting",
		"address", address,
		"store", cfg.StoreDriver,
		"storage", cfg.StorageType,
		"aging_schedule", cfg.AgingCronSchedule,
		"aging_threshold_days", cfg.AgingThresholdDays,
	)

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	cronManager.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server stopped")
}

// openDocumentStore picks the obra/region/goal store. "sql" shares the
// accounts database; "mongo" keeps documents in MongoDB.
func openDocumentStore(cfg *config.Config, db *database.Client, log logger.Logger) (store.DocumentStore, error) {
	switch cfg.StoreDriver {
	case "mongo", "mongodb":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "sql", "":
		s := gormstore.New(db.DB)
		if err := s.Migrate(); err != nil {
			return nil, err
		}
		log.Info("document store ready", "driver", "sql")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// openBlobStore returns the file store and, for local storage, the same store
// again so /files can serve it.
func openBlobStore(cfg *config.Config) (blob.Store, *blob.LocalStore, error) {
	switch cfg.StorageType {
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s, err := blob.NewS3Store(ctx, blob.S3Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Bucket:          cfg.S3Bucket,
			PresignExpiry:   time.Duration(cfg.S3PresignMinutes) * time.Minute,
		})
		return s, nil, err
	case "local", "":
		s, err := blob.NewLocalStore(cfg.StorageLocalPath, cfg.APIBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}
