// Package memory holds the in-process chat session store. Sessions live
// for the lifetime of the process.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/repository"
)

type ChatSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
	now      func() time.Time
}

func NewChatSessionStore() *ChatSessionStore {
	return &ChatSessionStore{
		sessions: make(map[string]*domain.ChatSession),
		now:      time.Now,
	}
}

func (s *ChatSessionStore) Create(ctx context.Context) (*domain.ChatSession, error) {
	now := s.now()
	session := &domain.ChatSession{
		ID:           repository.NewSessionID(),
		CreatedAt:    now,
		LastActivity: now,
		Transcript:   []domain.Turn{},
		Context:      map[string]any{},
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return clone(session), nil
}

func (s *ChatSessionStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return clone(session), nil
}

func (s *ChatSessionStore) AppendTurns(ctx context.Context, id string, turns ...domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	session.Transcript = append(session.Transcript, turns...)
	session.LastActivity = s.now()
	return nil
}

func (s *ChatSessionStore) MergeContext(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	session.Context = repository.MergeShallow(session.Context, patch)
	session.LastActivity = s.now()
	return maps.Clone(session.Context), nil
}

func (s *ChatSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *ChatSessionStore) List(ctx context.Context) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	out := make([]domain.SessionSummary, 0, len(s.sessions))
	created := make(map[string]time.Time, len(s.sessions))
	for id, session := range s.sessions {
		out = append(out, domain.SessionSummary{ID: id, MessageCount: len(session.Transcript)})
		created[id] = session.CreatedAt
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return created[out[i].ID].Before(created[out[j].ID])
	})
	return out, nil
}

func (s *ChatSessionStore) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, session := range s.sessions {
		if session.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// clone copies a session so callers never share the store's slices or maps.
func clone(session *domain.ChatSession) *domain.ChatSession {
	c := *session
	c.Transcript = slices.Clone(session.Transcript)
	if c.Transcript == nil {
		c.Transcript = []domain.Turn{}
	}
	c.Context = maps.Clone(session.Context)
	if c.Context == nil {
		c.Context = map[string]any{}
	}
	return &c
}
