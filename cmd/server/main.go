package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"linksnap/internal/cache"
	"linksnap/internal/config"
	"linksnap/internal/handlers"
	"linksnap/internal/metrics"
	"linksnap/internal/repository"
	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	var handler slog.Handler
	if cfg.AppEnv == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 3. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// 4. Initialize Redis. The app degrades without it: analytics caching
	// falls back to process memory and the live stream goes dark.
	rdb, err := repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0)
	if err != nil {
		logger.Warn("Failed to connect to Redis, falling back to in-memory cache", "error", err)
		rdb = nil
	}

	// 5. Run Migrations
	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		logger.Info("Running database migrations...")
		if err := repository.RunMigrations(cfg.DatabaseURL, ""); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else if err := repository.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	// 6. Initialize Services
	var store cache.Store
	var publisher services.Publisher
	if rdb != nil {
		store = cache.NewRedisStore(rdb, logger)
		publisher = services.NewRedisPublisher(rdb, logger)
	} else {
		store = cache.NewMemoryStore()
		publisher = services.NopPublisher{}
	}

	metricsRecorder := metrics.NewPrometheusRecorder()
	auditService := services.NewAuditService(db, logger)
	geoService := services.NewGeoService(cfg, logger)
	analyticsService := services.NewAnalytics(db, logger, store, metricsRecorder)
	recorder := services.NewRecorder(db, logger, geoService, analyticsService, publisher)
	linkService := services.NewLinkService(db, auditService, metricsRecorder)
	qrService := services.NewQRService()
	rateLimiter := services.NewIPRateLimiter(5, 10, logger)

	// 7. Initialize Handler
	h := handlers.NewHandler(cfg, logger, db, rdb, linkService, recorder, analyticsService, auditService, qrService, metricsRecorder)

	// 8. Setup Router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := h.SetupRouter(rateLimiter, metricsRecorder.Handler())

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Background Context for workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// Start Background Workers
	go auditService.Start(workerCtx)
	go recorder.Start(workerCtx)
	go geoService.Init()
	defer geoService.Close()
	go rateLimiter.Start(workerCtx, 10*time.Minute)

	// Initializing server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for context cancellation or server error
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	// Graceful shutdown timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	workerCancel()
	// Wait a tiny bit for workers
	time.Sleep(100 * time.Millisecond)

	logger.Info("Server exiting")
	return nil
}
