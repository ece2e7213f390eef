package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/dom/jumbah-travel/internal/repository/postgres"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/dom/jumbah-travel/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreService_Submit(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB, nil)
	scoreService := service.NewScoreService(repos.Score, repos.User)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	tests := []struct {
		name    string
		userID  uuid.UUID
		value   int
		wantErr error
	}{
		{name: "lowest score", userID: user.ID, value: 0},
		{name: "highest score", userID: user.ID, value: 100},
		{name: "below range", userID: user.ID, value: -1, wantErr: service.ErrScoreOutOfRange},
		{name: "above range", userID: user.ID, value: 101, wantErr: service.ErrScoreOutOfRange},
		{name: "unknown user", userID: uuid.New(), value: 50, wantErr: service.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := scoreService.Submit(ctx, tt.userID, tt.value)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.value, score.Value)
			assert.Equal(t, tt.userID, score.UserID)
		})
	}
}

func TestScoreService_Leaderboard(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB, nil)
	scoreService := service.NewScoreService(repos.Score, repos.User)
	ctx := context.Background()

	best, _ := testutil.NewUserBuilder().WithUsername("best").Build(t, testDB.DB)
	for _, v := range []int{40, 95, 70} {
		_, err := scoreService.Submit(ctx, best.ID, v)
		require.NoError(t, err)
	}

	for i := 0; i < 12; i++ {
		u, _ := testutil.NewUserBuilder().WithUsername(fmt.Sprintf("player%02d", i)).Build(t, testDB.DB)
		testutil.AddScores(t, testDB.DB, u, i*5)
	}

	board, err := scoreService.Leaderboard(ctx, service.LeaderboardSize)
	require.NoError(t, err)

	require.Len(t, board, service.LeaderboardSize)
	assert.Equal(t, "best", board[0].Username)
	assert.Equal(t, 95, board[0].BestScore)
	for i := 1; i < len(board); i++ {
		assert.GreaterOrEqual(t, board[i-1].BestScore, board[i].BestScore)
	}

	seen := map[string]bool{}
	for _, e := range board {
		assert.False(t, seen[e.Username], "user %s listed twice", e.Username)
		seen[e.Username] = true
	}
}
