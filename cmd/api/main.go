package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daricheva/streamgate/internal/auth"
	"github.com/daricheva/streamgate/internal/background"
	"github.com/daricheva/streamgate/internal/config"
	"github.com/daricheva/streamgate/internal/database"
	"github.com/daricheva/streamgate/internal/handlers"
	"github.com/daricheva/streamgate/internal/limiter"
	middlewareCustom "github.com/daricheva/streamgate/internal/middleware"
	"github.com/daricheva/streamgate/internal/repositories"
	"github.com/daricheva/streamgate/internal/routes"
	"github.com/daricheva/streamgate/internal/services"
	pkghttp "github.com/daricheva/streamgate/pkg/http"
	pkglogger "github.com/daricheva/streamgate/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	deviceRepo := repositories.NewDeviceRepository(db)
	streamRepo := repositories.NewStreamRepository(db)

	// Token verification (issuance lives in the platform auth service)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Per-account fixed-window limiter
	cleanupManager := background.NewCleanupManager(logger, cfg.RateLimit.SweepInterval)

	var accountLimiter limiter.Limiter
	switch cfg.RateLimit.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		accountLimiter = limiter.NewRedis(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		logger.Info("using redis rate limiter", slog.String("addr", cfg.RateLimit.RedisAddr))
	default:
		memoryLimiter := limiter.NewMemory(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		cleanupManager.Register("rate_limiter", memoryLimiter)
		accountLimiter = memoryLimiter
	}

	// Device security notifications
	var notifier services.DeviceNotifier = services.NoopNotifier{}
	if cfg.Email.Enabled {
		sesNotifier, err := services.NewAWSSESNotifier(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize notification service", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	}

	// Initialize services
	deviceService := services.NewDeviceService(deviceRepo, notifier, cfg.Devices.MaxDevices, logger, auditLogger)
	streamService := services.NewStreamService(streamRepo, cfg.Streams.HeartbeatInterval, logger, auditLogger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	deviceHandler := handlers.NewDeviceHandler(deviceService, ipConfig)
	streamHandler := handlers.NewStreamHandler(streamService)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, deviceHandler, streamHandler, tokenManager, accountLimiter, logger)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start limiter sweep task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
