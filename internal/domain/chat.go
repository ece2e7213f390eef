package domain

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message of a chat transcript.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a server-held conversation. The transcript only grows;
// prompts read a bounded suffix of it.
type ChatSession struct {
	ID           string         `json:"session_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Transcript   []Turn         `json:"messages"`
	Context      map[string]any `json:"context"`
}

type SessionSummary struct {
	ID           string `json:"session_id"`
	MessageCount int    `json:"message_count"`
}
