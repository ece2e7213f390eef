package postgres

import (
	"fmt"
	"strings"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// NewConnection opens the database named by databaseURL and migrates it.
// postgres:// URLs use the postgres driver; sqlite://path opens a local file
// for development.
func NewConnection(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(databaseURL, sqliteScheme):
		path := strings.TrimPrefix(databaseURL, sqliteScheme)
		if path == "" {
			return nil, fmt.Errorf("sqlite url %q has no path", databaseURL)
		}
		return sqlite.Open(path), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", databaseURL)
	}
}

// Migrate creates or updates every table the repositories use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Score{},
		&chatSessionRecord{},
	)
}

// NewRepositories wires the database-backed repositories. The chat session
// store is chosen separately; see cmd/server.
func NewRepositories(db *gorm.DB, sessions repository.ChatSessionStore) *repository.Repositories {
	if sessions == nil {
		sessions = NewChatSessionRepository(db)
	}
	return &repository.Repositories{
		User:        NewUserRepository(db),
		Score:       NewScoreRepository(db),
		ChatSession: sessions,
	}
}
