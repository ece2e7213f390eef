package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// chatSessionRecord is the row form of a chat session. The transcript is kept
// as one JSON array; MessageCount mirrors its length so listing stays cheap.
type chatSessionRecord struct {
	ID           string         `gorm:"primaryKey;size:36"`
	CreatedAt    time.Time      `gorm:"not null"`
	LastActivity time.Time      `gorm:"not null;index"`
	MessageCount int            `gorm:"not null;default:0"`
	Transcript   datatypes.JSON `gorm:"not null"`
	Context      datatypes.JSON `gorm:"not null"`
}

func (chatSessionRecord) TableName() string {
	return "chat_sessions"
}

func (rec *chatSessionRecord) toDomain() (*domain.ChatSession, error) {
	session := &domain.ChatSession{
		ID:           rec.ID,
		CreatedAt:    rec.CreatedAt,
		LastActivity: rec.LastActivity,
		Transcript:   []domain.Turn{},
		Context:      map[string]any{},
	}
	if len(rec.Transcript) > 0 {
		if err := json.Unmarshal(rec.Transcript, &session.Transcript); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
	}
	if len(rec.Context) > 0 {
		if err := json.Unmarshal(rec.Context, &session.Context); err != nil {
			return nil, fmt.Errorf("decode context: %w", err)
		}
	}
	if session.Context == nil {
		session.Context = map[string]any{}
	}
	return session, nil
}

type chatSessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewChatSessionRepository(db *gorm.DB) *chatSessionRepository {
	return &chatSessionRepository{db: db, now: time.Now}
}

func (r *chatSessionRepository) Create(ctx context.Context) (*domain.ChatSession, error) {
	now := r.now().UTC()
	rec := &chatSessionRecord{
		ID:           repository.NewSessionID(),
		CreatedAt:    now,
		LastActivity: now,
		Transcript:   datatypes.JSON("[]"),
		Context:      datatypes.JSON("{}"),
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec.toDomain()
}

func (r *chatSessionRepository) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	var rec chatSessionRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, sessionNotFound(err)
	}
	return rec.toDomain()
}

func (r *chatSessionRepository) AppendTurns(ctx context.Context, id string, turns ...domain.Turn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockSession(tx, id)
		if err != nil {
			return err
		}

		var transcript []domain.Turn
		if len(rec.Transcript) > 0 {
			if err := json.Unmarshal(rec.Transcript, &transcript); err != nil {
				return fmt.Errorf("decode transcript: %w", err)
			}
		}
		transcript = append(transcript, turns...)

		raw, err := json.Marshal(transcript)
		if err != nil {
			return err
		}

		return tx.Model(&chatSessionRecord{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"transcript":    datatypes.JSON(raw),
				"message_count": len(transcript),
				"last_activity": r.now().UTC(),
			}).Error
	})
}

func (r *chatSessionRepository) MergeContext(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	var merged map[string]any
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockSession(tx, id)
		if err != nil {
			return err
		}

		current := map[string]any{}
		if len(rec.Context) > 0 {
			if err := json.Unmarshal(rec.Context, &current); err != nil {
				return fmt.Errorf("decode context: %w", err)
			}
		}
		merged = repository.MergeShallow(current, patch)

		raw, err := json.Marshal(merged)
		if err != nil {
			return err
		}

		return tx.Model(&chatSessionRecord{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"context":       datatypes.JSON(raw),
				"last_activity": r.now().UTC(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func (r *chatSessionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&chatSessionRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}
	return nil
}

func (r *chatSessionRepository) List(ctx context.Context) ([]domain.SessionSummary, error) {
	var recs []chatSessionRecord
	err := r.db.WithContext(ctx).
		Select("id", "message_count").
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.SessionSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.SessionSummary{ID: rec.ID, MessageCount: rec.MessageCount})
	}
	return out, nil
}

func (r *chatSessionRepository) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Where("last_activity < ?", cutoff.UTC()).
		Delete(&chatSessionRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// lockSession loads the row with a row lock held until tx ends. SQLite has no
// row locks and serialises writers instead.
func lockSession(tx *gorm.DB, id string) (*chatSessionRecord, error) {
	var rec chatSessionRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, sessionNotFound(err)
	}
	return &rec, nil
}

func sessionNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrSessionNotFound
	}
	return err
}
