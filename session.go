package genchat

import "time"

// Session represents a conversation session. Messages is append-only:
// entries are never reordered or individually removed.
type Session struct {
	ID           string
	Messages     []Message
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSession creates an empty session timestamped now.
func NewSession(id, systemPrompt string) Session {
	now := time.Now()
	return Session{
		ID:           id,
		SystemPrompt: systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
