package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dom/jumbah-travel/internal/config"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/dom/jumbah-travel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatResponse struct {
	Response  string         `json:"response"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Messages  []struct {
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

func newSession(t *testing.T, ts *testutil.TestServer) string {
	t.Helper()

	resp := testutil.PostJSON(t, ts.URL("/chatbot/session/new"), "", nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var result struct {
		SessionID string    `json:"session_id"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"created_at"`
	}
	testutil.AssertJSONResponse(t, resp, &result)
	require.NotEmpty(t, result.SessionID)
	assert.Equal(t, service.NewSessionGreeting, result.Message)
	assert.False(t, result.CreatedAt.IsZero())
	return result.SessionID
}

func TestChatHandler_Conversation(t *testing.T) {
	ts := testutil.NewTestServer(t)

	sessionID := newSession(t, ts)

	resp := testutil.PostJSON(t, ts.URL("/chatbot/chat"), "", map[string]any{
		"message":    "Tell me about Mount Kinabalu",
		"session_id": sessionID,
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var chat chatResponse
	testutil.AssertJSONResponse(t, resp, &chat)
	assert.Equal(t, "echo: Tell me about Mount Kinabalu", chat.Response)
	assert.Equal(t, sessionID, chat.SessionID)
	assert.False(t, chat.Timestamp.IsZero())

	resp, err := http.Get(ts.URL("/chatbot/session/" + sessionID))
	require.NoError(t, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var session sessionResponse
	testutil.AssertJSONResponse(t, resp, &session)
	assert.Equal(t, sessionID, session.SessionID)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, "user", session.Messages[0].Role)
	assert.Equal(t, "Tell me about Mount Kinabalu", session.Messages[0].Content)
	assert.Equal(t, "assistant", session.Messages[1].Role)
	assert.Equal(t, "echo: Tell me about Mount Kinabalu", session.Messages[1].Content)
}

func TestChatHandler_FollowUpSeesHistory(t *testing.T) {
	gen := testutil.NewEchoGenerator()
	ts := testutil.NewTestServer(t, testutil.WithGenerator(gen))

	sessionID := newSession(t, ts)
	for _, msg := range []string{"Where is Sipadan?", "How do I get there?"} {
		resp := testutil.PostJSON(t, ts.URL("/chatbot/chat"), "", map[string]any{
			"message":    msg,
			"session_id": sessionID,
		})
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		resp.Body.Close()
	}

	last := gen.LastPrompt()
	assert.Contains(t, last, "Recent conversation:")
	assert.Contains(t, last, "Where is Sipadan?")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(last), "User: How do I get there?"))
}

func TestChatHandler_WithoutSessionOpensOne(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name      string
		sessionID string
	}{
		{name: "no session id"},
		{name: "unknown session id", sessionID: "does-not-exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.URL("/chatbot/chat"), "", map[string]any{
				"message":    "Hello",
				"session_id": tt.sessionID,
			})
			testutil.AssertStatusCode(t, resp, http.StatusOK)

			var chat chatResponse
			testutil.AssertJSONResponse(t, resp, &chat)
			require.NotEmpty(t, chat.SessionID)
			assert.NotEqual(t, tt.sessionID, chat.SessionID)

			session, err := ts.Services.Chat.GetSession(t.Context(), chat.SessionID)
			require.NoError(t, err)
			assert.Len(t, session.Transcript, 2)
		})
	}
}

func TestChatHandler_ContextIsMerged(t *testing.T) {
	ts := testutil.NewTestServer(t)
	sessionID := newSession(t, ts)

	send := func(context map[string]any) chatResponse {
		resp := testutil.PostJSON(t, ts.URL("/chatbot/chat"), "", map[string]any{
			"message":    "Plan something",
			"session_id": sessionID,
			"context":    context,
		})
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var chat chatResponse
		testutil.AssertJSONResponse(t, resp, &chat)
		return chat
	}

	send(map[string]any{"budget": "low", "days": float64(3)})
	chat := send(map[string]any{"budget": "high"})

	assert.Equal(t, map[string]any{"budget": "high", "days": float64(3)}, chat.Context)
}

func TestChatHandler_Errors(t *testing.T) {
	tests := []struct {
		name            string
		generator       *testutil.FakeGenerator
		body            map[string]any
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "empty message",
			generator:       testutil.NewEchoGenerator(),
			body:            map[string]any{"message": "   "},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Message cannot be empty",
		},
		{
			name:            "no credential",
			generator:       testutil.NewUnavailableGenerator(),
			body:            map[string]any{"message": "Hello"},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedMessage: "AI service is currently unavailable",
		},
		{
			name:            "generation failure is not leaked",
			generator:       testutil.NewFailingGenerator(),
			body:            map[string]any{"message": "Hello"},
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Failed to process chat message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.NewTestServer(t, testutil.WithGenerator(tt.generator))

			resp := testutil.PostJSON(t, ts.URL("/chatbot/chat"), "", tt.body)
			testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMessage)

			sessions, err := ts.Services.Chat.ListSessions(t.Context())
			require.NoError(t, err)
			for _, s := range sessions {
				assert.Zero(t, s.MessageCount, "failed turns must not be recorded")
			}
		})
	}
}

func TestChatHandler_Sessions(t *testing.T) {
	ts := testutil.NewTestServer(t)

	first := newSession(t, ts)
	second := newSession(t, ts)

	resp := testutil.PostJSON(t, ts.URL("/chatbot/chat"), "", map[string]any{
		"message":    "Hi",
		"session_id": second,
	})
	resp.Body.Close()

	resp, err := http.Get(ts.URL("/chatbot/sessions"))
	require.NoError(t, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var list struct {
		TotalSessions int `json:"total_sessions"`
		Sessions      []struct {
			SessionID    string `json:"session_id"`
			MessageCount int    `json:"message_count"`
		} `json:"sessions"`
	}
	testutil.AssertJSONResponse(t, resp, &list)
	require.Equal(t, 2, list.TotalSessions)
	counts := map[string]int{}
	for _, s := range list.Sessions {
		counts[s.SessionID] = s.MessageCount
	}
	assert.Equal(t, map[string]int{first: 0, second: 2}, counts)

	t.Run("delete", func(t *testing.T) {
		resp := testutil.DoJSON(t, http.MethodDelete, ts.URL("/chatbot/session/"+first), "", nil)
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var msg struct {
			Message string `json:"message"`
		}
		testutil.AssertJSONResponse(t, resp, &msg)
		assert.Equal(t, "Chat session deleted successfully", msg.Message)

		resp = testutil.DoJSON(t, http.MethodDelete, ts.URL("/chatbot/session/"+first), "", nil)
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Chat session not found")
	})

	t.Run("get unknown", func(t *testing.T) {
		resp, err := http.Get(ts.URL("/chatbot/session/unknown"))
		require.NoError(t, err)
		testutil.AssertErrorResponse(t, resp, http.StatusNotFound, "Chat session not found")
	})
}

func TestChatHandler_Info(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.URL("/chatbot/info"))
	require.NoError(t, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var info struct {
		Name         string   `json:"name"`
		PoweredBy    string   `json:"powered_by"`
		Capabilities []string `json:"capabilities"`
	}
	testutil.AssertJSONResponse(t, resp, &info)
	assert.Equal(t, "JumBah AI Travel Assistant", info.Name)
	assert.Equal(t, "fake", info.PoweredBy)
	assert.Contains(t, info.Capabilities, "Flight recommendations")
}

func TestChatHandler_RateLimited(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.WithConfig(func(c *config.Config) {
		c.ChatRateLimit = 0.001
		c.ChatRateBurst = 1
	}))

	resp := testutil.PostJSON(t, ts.URL("/chatbot/chat"), "", map[string]any{"message": "one"})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = testutil.PostJSON(t, ts.URL("/chatbot/chat"), "", map[string]any{"message": "two"})
	testutil.AssertErrorResponse(t, resp, http.StatusTooManyRequests, "Too many requests, please slow down")

	// session reads are not limited
	resp, err := http.Get(ts.URL("/chatbot/sessions"))
	require.NoError(t, err)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()
}
