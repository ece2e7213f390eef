package postgres

import (
	"context"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type scoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) *scoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) Create(ctx context.Context, score *domain.Score) error {
	return r.db.WithContext(ctx).Create(score).Error
}

func (r *scoreRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Score, error) {
	var scores []*domain.Score
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at ASC").
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Leaderboard ranks users by their best score. Ties are broken by username so
// the order is stable across calls.
func (r *scoreRepository) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Table("scores").
		Select("users.username AS username, MAX(scores.value) AS best_score").
		Joins("JOIN users ON users.id = scores.user_id").
		Group("users.id, users.username").
		Order("best_score DESC, users.username ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}
