package websocket

import (
	"time"
)

type MessageType string

const (
	MessageTypeResponse MessageType = "response"
	MessageTypeError    MessageType = "error"
)

// ChatRequest is a client frame. It mirrors the body of POST /chatbot/chat.
type ChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// Message is a server frame.
type Message struct {
	Type      MessageType    `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Response  string         `json:"response,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
}

func NewErrorMessage(sessionID, text string) *Message {
	return &Message{
		Type:      MessageTypeError,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Error:     text,
	}
}
