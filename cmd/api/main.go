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
	"github.com/therealutkarshpriyadarshi/downloader/internal/auth"
	"github.com/therealutkarshpriyadarshi/downloader/internal/browser"
	"github.com/therealutkarshpriyadarshi/downloader/internal/cache"
	"github.com/therealutkarshpriyadarshi/downloader/internal/cleanup"
	"github.com/therealutkarshpriyadarshi/downloader/internal/config"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database"
	"github.com/therealutkarshpriyadarshi/downloader/internal/downloads"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
	"github.com/therealutkarshpriyadarshi/downloader/internal/metrics"
	"github.com/therealutkarshpriyadarshi/downloader/internal/middleware"
	"github.com/therealutkarshpriyadarshi/downloader/internal/paths"
	"github.com/therealutkarshpriyadarshi/downloader/internal/plex"
	"github.com/therealutkarshpriyadarshi/downloader/internal/queue"
	"github.com/therealutkarshpriyadarshi/downloader/internal/settings"
	"github.com/therealutkarshpriyadarshi/downloader/internal/tracing"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)

	// Initialize tracing
	tracer, err := tracing.Init(cfg.Tracing)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize tracing")
	}
	defer tracer.Close()

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	applied, err := db.RunMigrations(context.Background())
	if err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}
	if len(applied) > 0 {
		logger.WithField("versions", applied).Info("Migrations applied")
	}

	repo := database.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional session cache. Interfaces stay nil when disabled.
	var sessionCache auth.SessionCache
	if cfg.Redis.Enabled {
		c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer c.Close()
		sessionCache = c
		logger.Info("Session cache enabled")
	}

	// Optional worker hand-off queue
	var publisher downloads.Publisher
	if cfg.Queue.Enabled {
		q, err := queue.New(cfg.Queue)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to queue")
		}
		defer q.Close()
		publisher = q
		go q.MonitorDepth(ctx, 30*time.Second, logger)
		logger.Info("Download events will be published to RabbitMQ")
	}

	authService := auth.NewService(repo, sessionCache, cfg.Auth.SessionTTL, logger)
	pathService := paths.NewService(repo, cfg.Browser.Root, logger)

	api := &API{
		auth:         authService,
		downloads:    downloads.NewService(repo, publisher, cfg.Downloads.AllowedHosts, cfg.Browser.Root, logger),
		paths:        pathService,
		browser:      browser.New(cfg.Browser.Root, repo, logger),
		settings:     settings.NewService(repo, logger),
		plex:         plex.NewClient(repo, nil, logger),
		health:       repo,
		logger:       logger,
		loginLimiter: middleware.NewRateLimiter(cfg.Auth.LoginRateLimit, cfg.Auth.LoginBurst),
		secureCookie: cfg.Auth.SecureCookie,
	}

	// Background work
	sweeper := cleanup.NewSessionSweeper(authService, cfg.Auth.SweepInterval, logger)
	sweeper.Start(ctx)
	go api.loginLimiter.Run(ctx)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	// Setup router
	router := setupRouter(api)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	cancel()
	sweeper.Wait()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Metrics server forced to shutdown")
		}
	}

	logger.Info("Server stopped")
}
