package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/prompt"
	"github.com/dom/jumbah-travel/internal/repository/memory"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/dom/jumbah-travel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatService(gen genai.Generator) (*service.ChatService, *memory.ChatSessionStore) {
	store := memory.NewChatSessionStore()
	return service.NewChatService(store, gen, time.Second), store
}

func TestChatService_Chat(t *testing.T) {
	gen := testutil.NewEchoGenerator()
	chat, _ := newChatService(gen)
	ctx := context.Background()

	session, err := chat.NewSession(ctx)
	require.NoError(t, err)

	result, err := chat.Chat(ctx, service.ChatInput{
		Message:   "Tell me about Mount Kinabalu",
		SessionID: session.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, session.ID, result.SessionID)
	assert.Equal(t, "echo: Tell me about Mount Kinabalu", result.Response)

	got, err := chat.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "Tell me about Mount Kinabalu", Timestamp: result.Timestamp}, got.Transcript[0])
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: result.Response, Timestamp: result.Timestamp}, got.Transcript[1])

	assert.Equal(t, prompt.BuildChat(nil, "Tell me about Mount Kinabalu"), gen.LastPrompt())
}

func TestChatService_ChatWithoutSessionCreatesOne(t *testing.T) {
	chat, _ := newChatService(testutil.NewEchoGenerator())
	ctx := context.Background()

	result, err := chat.Chat(ctx, service.ChatInput{Message: "Hi"})
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionID)

	got, err := chat.GetSession(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Len(t, got.Transcript, 2)
}

func TestChatService_UnknownSessionIsNotAdopted(t *testing.T) {
	chat, _ := newChatService(testutil.NewEchoGenerator())
	ctx := context.Background()

	result, err := chat.Chat(ctx, service.ChatInput{Message: "Hi", SessionID: "client-chosen-id"})
	require.NoError(t, err)
	assert.NotEqual(t, "client-chosen-id", result.SessionID)

	_, err = chat.GetSession(ctx, "client-chosen-id")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestChatService_PromptUsesRecentTurnsOnly(t *testing.T) {
	gen := testutil.NewEchoGenerator()
	chat, store := newChatService(gen)
	ctx := context.Background()

	session, err := chat.NewSession(ctx)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.AppendTurns(ctx, session.ID,
			domain.Turn{Role: domain.RoleUser, Content: fmt.Sprintf("question %02d", i)},
			domain.Turn{Role: domain.RoleAssistant, Content: fmt.Sprintf("answer %02d", i)},
		))
	}

	_, err = chat.Chat(ctx, service.ChatInput{Message: "latest", SessionID: session.ID})
	require.NoError(t, err)

	p := gen.LastPrompt()
	assert.Contains(t, p, "Recent conversation:")
	for i := 0; i < 6; i++ {
		assert.NotContains(t, p, fmt.Sprintf("question %02d", i))
		assert.NotContains(t, p, fmt.Sprintf("answer %02d", i))
	}
	for i := 6; i < 10; i++ {
		assert.Contains(t, p, fmt.Sprintf("User: question %02d", i))
		assert.Contains(t, p, fmt.Sprintf("You: answer %02d", i))
	}
	assert.True(t, strings.HasSuffix(p, "\nUser: latest"))

	got, err := chat.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, got.Transcript, 22, "full transcript is kept")
}

func TestChatService_MergesContext(t *testing.T) {
	chat, _ := newChatService(testutil.NewEchoGenerator())
	ctx := context.Background()

	first, err := chat.Chat(ctx, service.ChatInput{
		Message: "Plan a trip",
		Context: map[string]any{"budget": "low", "days": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "low", first.Context["budget"])

	second, err := chat.Chat(ctx, service.ChatInput{
		Message:   "Make it longer",
		SessionID: first.SessionID,
		Context:   map[string]any{"days": 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "low", second.Context["budget"])
	assert.Equal(t, 5, second.Context["days"])

	third, err := chat.Chat(ctx, service.ChatInput{Message: "Thanks", SessionID: first.SessionID})
	require.NoError(t, err)
	assert.Equal(t, 5, third.Context["days"], "context persists without a patch")
}

func TestChatService_Errors(t *testing.T) {
	tests := []struct {
		name      string
		generator *testutil.FakeGenerator
		message   string
		wantErr   error
	}{
		{
			name:      "empty message",
			generator: testutil.NewEchoGenerator(),
			message:   "   ",
			wantErr:   domain.ErrEmptyMessage,
		},
		{
			name:      "no credential",
			generator: testutil.NewUnavailableGenerator(),
			message:   "Hi",
			wantErr:   genai.ErrUnavailable,
		},
		{
			name:      "generation failure",
			generator: testutil.NewFailingGenerator(),
			message:   "Hi",
			wantErr:   genai.ErrGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat, store := newChatService(tt.generator)
			ctx := context.Background()

			session, err := chat.NewSession(ctx)
			require.NoError(t, err)

			_, err = chat.Chat(ctx, service.ChatInput{Message: tt.message, SessionID: session.ID})
			assert.ErrorIs(t, err, tt.wantErr)

			got, err := store.Get(ctx, session.ID)
			require.NoError(t, err)
			assert.Empty(t, got.Transcript, "failed turns are not recorded")

			list, err := store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1, "no extra session is opened")
		})
	}
}

func TestChatService_FailedGenerationLeavesStoreUntouched(t *testing.T) {
	chat, store := newChatService(testutil.NewFailingGenerator())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := chat.Chat(ctx, service.ChatInput{
			Message: "Hi",
			Context: map[string]any{"k": i},
		})
		assert.ErrorIs(t, err, genai.ErrGenerationFailed)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "no session is opened for a failed turn")

	session, err := chat.NewSession(ctx)
	require.NoError(t, err)

	_, err = chat.Chat(ctx, service.ChatInput{
		Message:   "Hi",
		SessionID: session.ID,
		Context:   map[string]any{"budget": "low"},
	})
	assert.ErrorIs(t, err, genai.ErrGenerationFailed)

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Context, "context is not merged for a failed turn")
	assert.Empty(t, got.Transcript)
}

func TestChatService_GenerationTimeout(t *testing.T) {
	gen := &testutil.FakeGenerator{}
	block := make(chan struct{})
	defer close(block)

	chat := service.NewChatService(memory.NewChatSessionStore(), blockingGenerator{gen, block}, 50*time.Millisecond)

	start := time.Now()
	_, err := chat.Chat(context.Background(), service.ChatInput{Message: "Hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}

// blockingGenerator waits until the context ends or block is closed.
type blockingGenerator struct {
	*testutil.FakeGenerator
	block chan struct{}
}

func (g blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-g.block:
		return "unblocked", nil
	}
}

func TestChatService_DeleteSession(t *testing.T) {
	chat, _ := newChatService(testutil.NewEchoGenerator())
	ctx := context.Background()

	session, err := chat.NewSession(ctx)
	require.NoError(t, err)

	require.NoError(t, chat.DeleteSession(ctx, session.ID))
	assert.ErrorIs(t, chat.DeleteSession(ctx, session.ID), service.ErrSessionNotFound)
}

func TestChatService_ListSessions(t *testing.T) {
	chat, _ := newChatService(testutil.NewEchoGenerator())
	ctx := context.Background()

	empty, err := chat.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	result, err := chat.Chat(ctx, service.ChatInput{Message: "Hi"})
	require.NoError(t, err)

	list, err := chat.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SessionSummary{{ID: result.SessionID, MessageCount: 2}}, list)
}
