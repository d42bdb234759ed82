// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/mystery-message/internal/admin"
	"github.com/carterperez-dev/mystery-message/internal/auth"
	"github.com/carterperez-dev/mystery-message/internal/config"
	"github.com/carterperez-dev/mystery-message/internal/core"
	"github.com/carterperez-dev/mystery-message/internal/health"
	"github.com/carterperez-dev/mystery-message/internal/jobs"
	"github.com/carterperez-dev/mystery-message/internal/mail"
	"github.com/carterperez-dev/mystery-message/internal/message"
	"github.com/carterperez-dev/mystery-message/internal/metrics"
	"github.com/carterperez-dev/mystery-message/internal/middleware"
	"github.com/carterperez-dev/mystery-message/internal/server"
	"github.com/carterperez-dev/mystery-message/internal/suggest"
	"github.com/carterperez-dev/mystery-message/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	generateKeys := flag.Bool("generate-keys", false, "write a new ES256 key pair to the configured paths and exit")
	flag.Parse()

	if err := run(*configPath, *generateKeys); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string, generateKeys bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if generateKeys {
		if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
			return err
		}
		logger.Info("key pair written",
			"private_key", cfg.JWT.PrivateKeyPath,
			"public_key", cfg.JWT.PublicKeyPath,
		)
		return nil
	}

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry, tracing disabled", "error", err)
	} else if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		return err
	}

	m := metrics.New()

	hasher, err := core.NewPasswordHasher(cfg.Security)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db.DB)
	codeStore := user.NewRedisCodeStore(
		redis.Client,
		cfg.Verification.KeyPrefix,
		cfg.Verification.CodeTTL,
	)
	userSvc := user.NewService(userRepo, codeStore, mailer, user.ServiceConfig{
		MaxAttempts: cfg.Verification.MaxAttempts,
		Hasher:      hasher,
		Logger:      logger,
	})
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		hasher,
		auth.NewRedisDenylist(redis.Client),
		cfg.App.ProfileURL,
	)
	authHandler := auth.NewHandler(authSvc)

	messageRepo := message.NewRepository(db.DB)
	messageSvc := message.NewService(messageRepo, userRepo, m, logger)
	messageHandler := message.NewHandler(messageSvc)

	var generator suggest.Generator
	if cfg.Suggest.SuggestionsEnabled() {
		gemini, genErr := suggest.NewGeminiGenerator(ctx, cfg.Suggest)
		if genErr != nil {
			return genErr
		}
		generator = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, message suggestions disabled")
	}
	suggestHandler := suggest.NewHandler(
		suggest.NewService(generator, cfg.Suggest.Timeout, m, logger),
	)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:      db.Stats,
		RedisStats:   redis.PoolStats,
		DBPing:       db.Ping,
		RedisPing:    redis.Ping,
		UserStats:    userRepo.Stats,
		MessageCount: messageSvc.Count,
	})

	var cleanup *jobs.Cleanup
	if cfg.Cleanup.Enabled {
		cleanup = jobs.NewCleanup(userRepo, authRepo, jobs.CleanupConfig{
			Schedule:      cfg.Cleanup.Schedule,
			UnverifiedTTL: cfg.Cleanup.UnverifiedTTL,
		}, m, logger)
		if err := cleanup.Start(); err != nil {
			return err
		}
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(telemetry.Tracer()))
	router.Use(middleware.Logger(logger))
	router.Use(m.Instrument)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	if cfg.Metrics.Enabled {
		router.Method("GET", cfg.Metrics.Path, m.Handler())
	}

	authenticator := middleware.Authenticator(authSvc)

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		messageHandler.RegisterRoutes(r, authenticator)
		suggestHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, middleware.RequireStaticToken(cfg.Admin.Token))
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if cleanup != nil {
		cleanup.Stop(shutdownCtx)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
