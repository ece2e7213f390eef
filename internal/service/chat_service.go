package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/prompt"
	"github.com/dom/jumbah-travel/internal/repository"
)

// NewSessionGreeting is returned when a session is opened explicitly.
const NewSessionGreeting = "🌺 Hello! I'm JumBah AI, your intelligent travel assistant for Sabah, Malaysia! " +
	"I'm powered by advanced AI to help you discover the incredible beauty and experiences that Sabah has to offer. " +
	"How can I help you plan your perfect Sabah adventure today?"

var ErrSessionNotFound = repository.ErrSessionNotFound

type ChatService struct {
	sessions  repository.ChatSessionStore
	generator genai.Generator
	timeout   time.Duration
	now       func() time.Time
}

func NewChatService(sessions repository.ChatSessionStore, generator genai.Generator, timeout time.Duration) *ChatService {
	return &ChatService{
		sessions:  sessions,
		generator: generator,
		timeout:   timeout,
		now:       time.Now,
	}
}

type ChatInput struct {
	Message   string
	SessionID string
	Context   map[string]any
}

type ChatResult struct {
	Response  string
	SessionID string
	Timestamp time.Time
	Context   map[string]any
}

func (s *ChatService) NewSession(ctx context.Context) (*domain.ChatSession, error) {
	return s.sessions.Create(ctx)
}

// Chat runs one conversational turn: load the session if it exists, build the
// prompt from its recent transcript, call the generator once and only then
// record the turn. A failed generation leaves the store untouched, so a
// session without an id is opened after the reply is in hand.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, domain.ErrEmptyMessage
	}
	if !s.generator.Available() {
		return nil, genai.ErrUnavailable
	}

	session, err := s.lookupSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	var recent []domain.Turn
	if session != nil {
		recent = prompt.Recent(session.Transcript)
	}

	reply, err := s.generate(ctx, prompt.BuildChat(recent, in.Message))
	if err != nil {
		return nil, err
	}

	created := false
	if session == nil {
		if session, err = s.sessions.Create(ctx); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		created = true
	}

	now := s.now()
	sessionContext, err := s.record(ctx, session, in.Context,
		domain.Turn{Role: domain.RoleUser, Content: in.Message, Timestamp: now},
		domain.Turn{Role: domain.RoleAssistant, Content: reply, Timestamp: now},
	)
	if err != nil {
		if created {
			if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil {
				slog.Warn("chat: failed to discard new session", "session_id", session.ID, "error", delErr)
			}
		}
		return nil, err
	}

	return &ChatResult{
		Response:  reply,
		SessionID: session.ID,
		Timestamp: now,
		Context:   sessionContext,
	}, nil
}

// lookupSession returns the named session, or nil when no id was given or the
// id is unknown. An unknown id is never adopted; the caller gets a new
// system-generated id back.
func (s *ChatService) lookupSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	if id == "" {
		return nil, nil
	}
	session, err := s.sessions.Get(ctx, id)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}
	slog.Info("chat: unknown session id, opening a new session", "requested_id", id)
	return nil, nil
}

// record folds the context patch into the session and appends the turns.
func (s *ChatService) record(ctx context.Context, session *domain.ChatSession, patch map[string]any, turns ...domain.Turn) (map[string]any, error) {
	sessionContext := session.Context
	if len(patch) > 0 {
		merged, err := s.sessions.MergeContext(ctx, session.ID, patch)
		if err != nil {
			return nil, fmt.Errorf("merge context: %w", err)
		}
		sessionContext = merged
	}

	if err := s.sessions.AppendTurns(ctx, session.ID, turns...); err != nil {
		return nil, fmt.Errorf("append turns: %w", err)
	}
	return sessionContext, nil
}

func (s *ChatService) generate(ctx context.Context, text string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.generator.Generate(ctx, text)
}

func (s *ChatService) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	return s.sessions.Get(ctx, id)
}

func (s *ChatService) DeleteSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

func (s *ChatService) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.sessions.List(ctx)
}

// Provider names the generation backend answering chats.
func (s *ChatService) Provider() string {
	return s.generator.Provider()
}
