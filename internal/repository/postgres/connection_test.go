package postgres_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dom/jumbah-travel/internal/repository"
	"github.com/dom/jumbah-travel/internal/repository/postgres"
	"github.com/dom/jumbah-travel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestNewConnection_RejectsUnknownScheme(t *testing.T) {
	tests := []string{
		"mysql://root@localhost/jumbah",
		"sqlite://",
		"",
	}

	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			_, err := postgres.NewConnection(url, logger.Silent)
			assert.Error(t, err)
		})
	}
}

func TestNewConnection_SQLite(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "jumbah.db")

	db, err := postgres.NewConnection(url, logger.Silent)
	require.NoError(t, err)

	repos := postgres.NewRepositories(db, nil)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().WithUsername("sqlite_user").Build(t, db)
	got, err := repos.User.GetByUsername(ctx, "sqlite_user")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	testutil.AddScores(t, db, user, 30, 75)
	board, err := repos.Score.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 75, board[0].BestScore)

	session, err := repos.ChatSession.Create(ctx)
	require.NoError(t, err)
	merged, err := repos.ChatSession.MergeContext(ctx, session.ID, map[string]any{"budget": "low"})
	require.NoError(t, err)
	assert.Equal(t, "low", merged["budget"])

	_, err = repos.ChatSession.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}
