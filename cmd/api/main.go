package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/realmadmin/internal/auth"
	"github.com/BradenHooton/realmadmin/internal/background"
	"github.com/BradenHooton/realmadmin/internal/config"
	"github.com/BradenHooton/realmadmin/internal/database"
	"github.com/BradenHooton/realmadmin/internal/handlers"
	middlewareCustom "github.com/BradenHooton/realmadmin/internal/middleware"
	"github.com/BradenHooton/realmadmin/internal/query"
	"github.com/BradenHooton/realmadmin/internal/repositories"
	"github.com/BradenHooton/realmadmin/internal/routes"
	"github.com/BradenHooton/realmadmin/internal/services"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
	pkglogger "github.com/BradenHooton/realmadmin/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	level.Set(parseLevel(cfg.Server.LogLevel))

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("directory_backend", cfg.Directory.Backend),
		slog.String("email_transport", cfg.Email.Transport))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dir, health, closeDir, reloader, err := openDirectory(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open directory", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeDir()

	// Email transport
	sender, err := newEmailSender(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	matchMode, err := query.ParseMatchMode(cfg.Query.MembershipMatch)
	if err != nil {
		logger.Error("invalid membership match mode", slog.Any("error", err))
		os.Exit(1)
	}

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxies", slog.Any("error", err))
		os.Exit(1)
	}

	// Tokens
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)
	actionTokens := auth.NewActionTokenIssuer(cfg.ActionToken.Secret, cfg.Email.PublicBaseURL, cfg.ActionToken.Claims)

	auditLogger := pkglogger.NewAuditLogger(logger)
	renderer := services.NewThemeRenderer()

	// Initialize services
	queryService := services.NewUserQueryService(dir, matchMode, query.ParseOptions{
		DefaultPageSize: cfg.Query.DefaultPageSize,
		Strict:          cfg.Query.StrictParams,
	}, logger)
	actionEmailService := services.NewActionEmailService(dir, actionTokens, renderer, sender, cfg.Email.PublicBaseURL, logger)
	mailService := services.NewMailService(dir, renderer, sender, cfg.Email.PublicBaseURL, logger)
	adminService := services.NewAdminService(dir, matchMode, logger)
	authService := services.NewAuthService(cfg.Auth.AdminClientID, cfg.Auth.AdminClientSecretHash, tokenManager, logger, auditLogger)

	if cfg.Auth.AdminClientSecretHash == "" {
		logger.Warn("ADMIN_CLIENT_SECRET_HASH not set, token endpoint rejects every client")
	}

	// Initialize handlers
	h := routes.Handlers{
		Users: handlers.NewUserHandler(queryService),
		Email: handlers.NewEmailHandler(actionEmailService, mailService, auditLogger, ipConfig),
		Admin: handlers.NewAdminHandler(adminService),
		Auth:  handlers.NewAuthHandler(authService, ipConfig),
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.NewCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, cfg.Server.Env))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// Register routes
	routes.RegisterRoutes(router, h, tokenManager, routes.Limits{
		TokenPerMinute: cfg.Auth.TokenRateLimit,
		AdminPerMinute: cfg.Auth.AdminRateLimit,
	})

	// Health check with directory status
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		stats, err := health(ctx)
		if err != nil {
			logger.Warn("health check failed", slog.Any("error", err))
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "unhealthy",
				"directory": "down",
			})
			return
		}

		pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"directory": "up",
			"backend":   cfg.Directory.Backend,
			"stats":     stats,
		})
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start fixture reloader
	reloadCtx, reloadCancel := context.WithCancel(context.Background())
	defer reloadCancel()

	if reloader != nil {
		go reloader.Start(reloadCtx)
	}

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

	if reloader != nil {
		reloader.Stop()
	}
	reloadCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

type healthFunc func(ctx context.Context) (map[string]any, error)

// openDirectory builds the configured directory backend. The reloader is nil
// unless the memory backend polls its fixture.
func openDirectory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.Directory, healthFunc, func(), *background.FixtureReloader, error) {
	if cfg.Directory.Backend == config.BackendMemory {
		info, err := os.Stat(cfg.Directory.FixturePath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		fixture, err := repositories.LoadFixture(cfg.Directory.FixturePath)
		if err != nil {
			return nil, nil, nil, nil, err
		}

		dir := repositories.NewInMemoryDirectory()
		dir.Load(fixture)
		logger.Info("directory fixture loaded",
			slog.String("path", cfg.Directory.FixturePath),
			slog.Int("realms", len(fixture.Realms)))

		var reloader *background.FixtureReloader
		if cfg.Directory.ReloadInterval > 0 {
			reloader = background.NewFixtureReloader(cfg.Directory.FixturePath, dir, logger, cfg.Directory.ReloadInterval, info.ModTime())
		}

		health := func(ctx context.Context) (map[string]any, error) {
			return map[string]any{}, nil
		}
		return dir, health, func() {}, reloader, nil
	}

	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, nil, err
	}

	if cfg.Directory.FixturePath != "" {
		fixture, err := repositories.LoadFixture(cfg.Directory.FixturePath)
		if err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		if err := repositories.Seed(ctx, db, fixture); err != nil {
			db.Close()
			return nil, nil, nil, nil, err
		}
		logger.Info("directory seeded", slog.String("path", cfg.Directory.FixturePath))
	}

	return repositories.NewPostgresDirectory(db), db.HealthCheck, db.Close, nil, nil
}

func newEmailSender(cfg *config.Config, logger *slog.Logger) (services.EmailSender, error) {
	if cfg.Email.Transport == config.TransportSMTP {
		return services.NewSMTPEmailSender(services.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			TLS:      cfg.Email.SMTPTLS,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     cfg.Email.FromAddress,
		}, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return services.NewSESEmailSender(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
