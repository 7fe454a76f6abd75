// Package domain holds the shared types passed between the bot's components.
package domain

import "time"

// Role constants for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single role-tagged entry in a user's conversation history.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundMessage is a message or command received from the chat platform.
type InboundMessage struct {
	Text     string `json:"text"`
	UserID   string `json:"userId"`
	Channel  string `json:"channel"`
	ThreadID string `json:"threadId,omitempty"`
}

// Transcript is one completed turn, recorded for audit.
type Transcript struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Channel   string        `json:"channel"`
	Thread    string        `json:"thread,omitempty"`
	Prompt    string        `json:"prompt"`
	Reply     string        `json:"reply"`
	Model     string        `json:"model,omitempty"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}
