package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/jumbah-travel/internal/api"
	"github.com/dom/jumbah-travel/internal/config"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/metrics"
	"github.com/dom/jumbah-travel/internal/repository"
	"github.com/dom/jumbah-travel/internal/repository/memory"
	"github.com/dom/jumbah-travel/internal/repository/postgres"
	"github.com/dom/jumbah-travel/internal/repository/redisstore"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

// writeSlack is added to the generation timeout so a slow model call can
// still be answered before the server gives up on the response.
const writeSlack = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logLevel := logger.Warn
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, logLevel)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get sql.DB", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize chat session store", "store", cfg.ChatSessionStore, "error", err)
		os.Exit(1)
	}
	defer closeSessions()
	repos := postgres.NewRepositories(db, sessions)

	m := metrics.New()
	generator := genai.FromConfig(cfg)
	if !generator.Available() {
		slog.Warn("No generation credential configured; chat and planning will answer 503",
			"provider", generator.Provider())
	}

	services, err := service.NewServices(repos, genai.NewInstrumented(generator, m), sqlDB, cfg)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	service.StartSessionJanitor(ctx, repos.ChatSession, cfg.SessionTTL, cfg.SessionSweepInterval, m)

	// Hijacked chat sockets are not tracked by srv.Shutdown; they close when
	// ctx ends.
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      api.NewRouter(ctx, services, m, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.GenerationTimeout),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server starting",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"provider", generator.Provider(),
			"session_store", cfg.ChatSessionStore,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}

// writeTimeout leaves room for one generation call. With no generation bound
// the response has none either.
func writeTimeout(generation time.Duration) time.Duration {
	if generation <= 0 {
		return 0
	}
	return generation + writeSlack
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newSessionStore picks the chat session backend. A nil store means the
// postgres repository built by NewRepositories.
func newSessionStore(ctx context.Context, cfg *config.Config) (repository.ChatSessionStore, func(), error) {
	switch cfg.ChatSessionStore {
	case "redis":
		rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close redis client", "error", err)
			}
		}
		return redisstore.NewChatSessionStore(rdb, cfg.SessionTTL), closeFn, nil
	case "postgres":
		return nil, func() {}, nil
	default:
		return memory.NewChatSessionStore(), func() {}, nil
	}
}
