package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session represents a conversation identity.
type Session struct {
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	MessageCount   int       `json:"message_count"`
}

// State derives the conversation state from the number of stored messages.
func (s *Session) State() SessionState {
	if s.MessageCount == 0 {
		return SessionStateNew
	}
	return SessionStateActive
}

// Message represents a single message in a session.
type Message struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionID returns a time-prefixed identifier with a random suffix.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("chat_%d_%s", now.UnixMilli(), uuid.New().String()[:8])
}

// NewMessageID returns a random message identifier.
func NewMessageID() string {
	return "msg_" + uuid.New().String()
}
