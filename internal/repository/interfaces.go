package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrSessionNotFound = errors.New("chat session not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type ScoreRepository interface {
	Create(ctx context.Context, score *domain.Score) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Score, error)
	// Leaderboard returns each user's best score, highest first.
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// ChatSessionStore is the session registry. Every method that takes an id
// returns ErrSessionNotFound when the session does not exist.
type ChatSessionStore interface {
	Create(ctx context.Context) (*domain.ChatSession, error)
	Get(ctx context.Context, id string) (*domain.ChatSession, error)
	AppendTurns(ctx context.Context, id string, turns ...domain.Turn) error
	// MergeContext overwrites top-level keys of the session context with
	// patch and returns the merged result.
	MergeContext(ctx context.Context, id string, patch map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.SessionSummary, error)
	// DeleteIdleSince evicts sessions whose last activity is before cutoff.
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error)
}

type Repositories struct {
	User        UserRepository
	Score       ScoreRepository
	ChatSession ChatSessionStore
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// MergeShallow copies patch over dst's top-level keys, allocating dst if needed.
func MergeShallow(dst, patch map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		dst[k] = v
	}
	return dst
}
