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

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/config"
	"github.com/BradenHooton/useradmin/internal/database"
	"github.com/BradenHooton/useradmin/internal/handlers"
	middlewareCustom "github.com/BradenHooton/useradmin/internal/middleware"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/repositories"
	"github.com/BradenHooton/useradmin/internal/routes"
	"github.com/BradenHooton/useradmin/internal/services"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	pkglogger "github.com/BradenHooton/useradmin/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
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

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("email", cfg.Email.Provider))

	// Initialize storage
	var (
		store  services.UserStore
		pinger handlers.Pinger
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store = repositories.NewMemoryUserRepository()
	default:
		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := db.Migrate(ctx)
			cancel()
			if err != nil {
				logger.Error("failed to run migrations", slog.Any("error", err))
				os.Exit(1)
			}
		}

		store = repositories.NewUserRepository(db)
		pinger = db
	}

	// Verification code delivery
	var emailService services.EmailService
	switch cfg.Email.Provider {
	case config.EmailProviderSES:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sesService, err := services.NewAWSSESEmailService(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		emailService = sesService
	default:
		emailService = services.NewLogEmailService(logger)
	}

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize services
	userService := services.NewUserService(store, emailService, auditLogger, cfg.Query, logger)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, logger)
	healthHandler := handlers.NewHealthHandler(pinger, logger)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, store, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, userHandler, healthHandler, tokenManager, userService.Lookup(), routes.RateLimits{
		Admin:  middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Server.AdminRateLimit, IPConfig: ipConfig},
		Verify: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Server.VerifyRateLimit, IPConfig: ipConfig},
	}, logger)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// ensureAdminUser creates the first admin user if ADMIN_USERNAME and
// ADMIN_EMAIL are set. The account is created already verified.
func ensureAdminUser(ctx context.Context, store services.UserStore, logger *slog.Logger) error {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")

	if adminUsername == "" || adminEmail == "" {
		logger.Info("no ADMIN_USERNAME or ADMIN_EMAIL set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := store.GetByUsername(ctx, adminUsername)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	admin, err := store.Create(ctx, &models.User{
		Username: adminUsername,
		Email:    adminEmail,
		Name:     "Admin",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := store.MarkVerified(ctx, admin.ID); err != nil {
		return fmt.Errorf("failed to verify admin user: %w", err)
	}

	logger.Info("admin user created", slog.String("user_id", admin.ID))
	return nil
}
