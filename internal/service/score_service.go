package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/repository"
	"github.com/google/uuid"
)

// LeaderboardSize is how many entries GET /leaderboard returns.
const LeaderboardSize = 10

var ErrScoreOutOfRange = domain.ErrScoreOutOfRange

type ScoreService struct {
	scoreRepo repository.ScoreRepository
	userRepo  repository.UserRepository
	now       func() time.Time
}

func NewScoreService(scoreRepo repository.ScoreRepository, userRepo repository.UserRepository) *ScoreService {
	return &ScoreService{
		scoreRepo: scoreRepo,
		userRepo:  userRepo,
		now:       time.Now,
	}
}

// Submit records one quiz result for an existing user.
func (s *ScoreService) Submit(ctx context.Context, userID uuid.UUID, value int) (*domain.Score, error) {
	if err := domain.ValidateScore(value); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	score := &domain.Score{
		ID:          uuid.New(),
		UserID:      userID,
		Value:       value,
		SubmittedAt: s.now(),
	}
	if err := s.scoreRepo.Create(ctx, score); err != nil {
		return nil, err
	}
	return score, nil
}

func (s *ScoreService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = LeaderboardSize
	}
	return s.scoreRepo.Leaderboard(ctx, limit)
}
