package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/test-session/internal/auth"
	"github.com/SAP-F-2025/test-session/internal/backend"
	"github.com/SAP-F-2025/test-session/internal/cache"
	"github.com/SAP-F-2025/test-session/internal/config"
	"github.com/SAP-F-2025/test-session/internal/handlers"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/SAP-F-2025/test-session/internal/repositories/postgres"
	"github.com/SAP-F-2025/test-session/internal/services"
	"github.com/SAP-F-2025/test-session/internal/session"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/SAP-F-2025/test-session/internal/validator"
	"github.com/SAP-F-2025/test-session/internal/ws"
	"github.com/SAP-F-2025/test-session/pkg"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("test-session stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := utils.NewLogger(cfg.Environment)
	v := validator.New()
	if err := v.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cache: redis when configured, process memory otherwise
	var store cache.CacheService
	if cfg.RedisURL != "" {
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		store = cache.NewRedisCache(client, "test-session:", logger)
	} else {
		logger.Warn("REDIS_URL not set, credentials and tests are cached in memory")
		store = cache.NewMemoryCache()
	}

	// Result history
	var history repositories.SessionRecordRepository
	if cfg.DatabaseURL != "" {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return err
		}
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		history = postgres.NewSessionRecordPostgreSQL(db)
	} else {
		logger.Warn("DATABASE_URL not set, session history is kept in memory")
		history = repositories.NewMemorySessionRecords()
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		return err
	}
	defer publisher.Close()

	var verifier auth.TokenVerifier
	if cfg.Casdoor.Enabled() {
		verifier = auth.NewCasdoorVerifier(cfg.Casdoor)
	}
	authContext := auth.NewSessionContext(
		auth.NewCacheCredentialStore(store, auth.DefaultCredentialKey),
		verifier,
		auth.Options{LoginRoute: cfg.LoginRoute, RedirectDelay: cfg.RedirectDelay},
		logger,
	)

	hub := ws.NewHub(logger)
	go hub.Run(ctx)
	defer hub.Stop()

	eventService := services.NewSessionEventService(history, publisher, logger.Slog())
	authContext.AddNotifier(hub)
	authContext.AddNotifier(eventService)
	if err := authContext.Init(ctx); err != nil {
		return err
	}
	defer authContext.Teardown()

	client := backend.NewClient(backend.Config{
		BaseURL:             cfg.BackendURL,
		Timeout:             cfg.BackendTimeout,
		InvalidTokenMessage: cfg.InvalidTokenMessage,
	}, authContext, authContext, v, logger)

	loader := session.NewLoader(client, store, cfg.Session.QuestionCacheTTL, v, logger)
	manager := session.NewManager(loader, client, session.ManagerConfig{
		Options: session.Options{
			WarningAt:    cfg.Session.WarningAt,
			BlankMarker:  cfg.Session.BlankMarker,
			PageSize:     cfg.Session.PageSize,
			HeaderOffset: cfg.Session.HeaderOffset,
		},
		DefaultDuration: cfg.Session.DefaultDuration,
		Listeners:       []session.Listener{hub, eventService},
		User:            authContext.User,
	}, logger)
	defer manager.Shutdown()

	serviceLogger := services.NewServiceLogger(logger.Slog(), services.LogConfig{
		Service:     "test-session",
		Component:   "session",
		EnableDebug: !cfg.IsProduction(),
	})
	sessionService := services.NewSessionService(manager, history, authContext, v, serviceLogger)
	exportService := services.NewExportService(sessionService, logger.Slog())
	analyticsService := services.NewAnalyticsService(history, authContext, logger.Slog())

	router := gin.New()
	router.Use(gin.Recovery(), utils.ContextLogger(logger), utils.LoggerMiddleware(logger))
	handlers.NewHandlerManager(sessionService, exportService, analyticsService, hub, authContext, v, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
