package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dom/jumbah-travel/internal/api"
	"github.com/dom/jumbah-travel/internal/config"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/metrics"
	"github.com/dom/jumbah-travel/internal/repository"
	"github.com/dom/jumbah-travel/internal/repository/memory"
	repoPostgres "github.com/dom/jumbah-travel/internal/repository/postgres"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_jumbah"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(testDB.Cleanup)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	testDB.DB = db

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"chat_sessions", "scores", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:                 "0",
		Environment:          "test",
		JWTSecret:            "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours:   1,
		GenerationProvider:   genai.ProviderGemini,
		GenerationTimeout:    5 * time.Second,
		ChatSessionStore:     "memory",
		SessionTTL:           time.Hour,
		SessionSweepInterval: time.Minute,
		CORSOrigins:          []string{"http://localhost:3000"},
		ChatRateLimit:        1000,
		ChatRateBurst:        1000,
		AttractionsPath:      "testdata/attractions.json",
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server    *httptest.Server
	DB        *TestDB
	Repos     *repository.Repositories
	Services  *service.Services
	Generator genai.Generator
	Metrics   *metrics.Metrics
	Config    *config.Config

	stop context.CancelFunc
}

// ServerOption adjusts a TestServer before it starts.
type ServerOption func(*serverOptions)

type serverOptions struct {
	generator genai.Generator
	configure func(*config.Config)
}

// WithGenerator replaces the default echo generator.
func WithGenerator(g genai.Generator) ServerOption {
	return func(o *serverOptions) { o.generator = g }
}

// WithConfig lets a test tweak the configuration.
func WithConfig(fn func(*config.Config)) ServerOption {
	return func(o *serverOptions) { o.configure = fn }
}

// NewTestServer creates a complete test server backed by a postgres
// container, the in-memory session store and an echo generator.
func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()

	o := serverOptions{generator: NewEchoGenerator()}
	for _, opt := range opts {
		opt(&o)
	}

	testDB := NewTestDB(t)
	cfg := TestConfig()
	if o.configure != nil {
		o.configure(cfg)
	}

	sqlDB, err := testDB.DB.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}

	m := metrics.New()
	gen := genai.NewInstrumented(o.generator, m)
	repos := repoPostgres.NewRepositories(testDB.DB, memory.NewChatSessionStore())

	services, err := service.NewServices(repos, gen, sqlDB, cfg)
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}
	ctx, stop := context.WithCancel(context.Background())
	router := api.NewRouter(ctx, services, m, cfg)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:    server,
		DB:        testDB,
		Repos:     repos,
		Services:  services,
		Generator: o.generator,
		Metrics:   m,
		Config:    cfg,
		stop:      stop,
	}

	t.Cleanup(server.Close)
	t.Cleanup(stop)

	return ts
}

// Shutdown ends the server lifetime, closing any open chat sockets.
func (ts *TestServer) Shutdown() {
	ts.stop()
}

// URL returns the full URL for a given path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// WebSocketURL returns the chat socket URL
func (ts *TestServer) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/chatbot/ws"
}
