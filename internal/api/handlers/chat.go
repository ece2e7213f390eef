package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/go-chi/chi/v5"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type ChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

type ChatResponse struct {
	Response  string         `json:"response"`
	SessionID string         `json:"session_id"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context"`
}

type NewSessionResponse struct {
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionListResponse struct {
	TotalSessions int                     `json:"total_sessions"`
	Sessions      []domain.SessionSummary `json:"sessions"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type InfoResponse struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	PoweredBy    string   `json:"powered_by"`
	Capabilities []string `json:"capabilities"`
}

var capabilities = []string{
	"Personalized travel recommendations",
	"Detailed itinerary planning",
	"Local attractions and activities information",
	"Food and dining suggestions",
	"Transportation and accommodation advice",
	"Cultural insights and festival information",
	"Wildlife and nature activity planning",
	"Budget planning assistance",
	"Flight recommendations",
	"Local customs and etiquette guidance",
}

var poweredBy = map[string]string{
	genai.ProviderGemini:    "Google Gemini AI",
	genai.ProviderAnthropic: "Anthropic Claude",
}

func (h *ChatHandler) NewSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.NewSession(r.Context())
	if err != nil {
		slog.Error("handlers.NewSession: failed", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to create chat session")
		return
	}

	JSON(w, http.StatusOK, NewSessionResponse{
		SessionID: session.ID,
		Message:   service.NewSessionGreeting,
		CreatedAt: session.CreatedAt,
	})
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.sessionError(w, "handlers.GetSession", err)
		return
	}
	JSON(w, http.StatusOK, session)
}

func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.sessionError(w, "handlers.DeleteSession", err)
		return
	}
	JSON(w, http.StatusOK, MessageResponse{Message: "Chat session deleted successfully"})
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatService.ListSessions(r.Context())
	if err != nil {
		slog.Error("handlers.ListSessions: failed", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to list chat sessions")
		return
	}
	JSON(w, http.StatusOK, SessionListResponse{TotalSessions: len(sessions), Sessions: sessions})
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.chatService.Chat(r.Context(), service.ChatInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		Context:   req.Context,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyMessage):
			Error(w, http.StatusBadRequest, "Message cannot be empty")
		case errors.Is(err, genai.ErrUnavailable):
			Error(w, http.StatusServiceUnavailable, "AI service is currently unavailable")
		default:
			slog.Error("handlers.Chat: generation failed", "error", err, "session_id", req.SessionID)
			Error(w, http.StatusInternalServerError, "Failed to process chat message")
		}
		return
	}

	JSON(w, http.StatusOK, ChatResponse{
		Response:  result.Response,
		SessionID: result.SessionID,
		Timestamp: result.Timestamp,
		Context:   result.Context,
	})
}

func (h *ChatHandler) Info(w http.ResponseWriter, r *http.Request) {
	provider := h.chatService.Provider()
	name, ok := poweredBy[provider]
	if !ok {
		name = provider
	}
	JSON(w, http.StatusOK, InfoResponse{
		Name:         "JumBah AI Travel Assistant",
		Description:  "Your intelligent guide to Sabah, Malaysia",
		PoweredBy:    name,
		Capabilities: capabilities,
	})
}

func (h *ChatHandler) sessionError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		Error(w, http.StatusNotFound, "Chat session not found")
		return
	}
	slog.Error(op+": failed", "error", err)
	Error(w, http.StatusInternalServerError, "Internal server error")
}
