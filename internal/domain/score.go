package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Score is one quiz submission. Rows are never updated or deleted.
type Score struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Value       int       `json:"score" gorm:"not null"`
	SubmittedAt time.Time `json:"submittedAt" gorm:"not null"`

	User *User `json:"-" gorm:"foreignKey:UserID"`
}

func ValidateScore(value int) error {
	if value < MinScore || value > MaxScore {
		return ErrScoreOutOfRange
	}
	return nil
}

// LeaderboardEntry is a user's best score.
type LeaderboardEntry struct {
	Username  string `json:"username"`
	BestScore int    `json:"score"`
}
