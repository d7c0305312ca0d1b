// Package domain defines the core domain models for the chat service.
package domain

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem only appears in assembled transcripts, never in stored history.
	RoleSystem Role = "system"
)

// Valid reports whether the role may be stored in a session.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// SessionState is observed through the message count, not stored.
type SessionState string

const (
	SessionStateNew    SessionState = "NEW"
	SessionStateActive SessionState = "ACTIVE"
)

// TurnAction is what the orchestrator does with an inbound message.
type TurnAction string

const (
	// TurnActionWelcome replies with the fixed intake message.
	TurnActionWelcome TurnAction = "welcome"
	// TurnActionComplete asks the completion gateway for a reply.
	TurnActionComplete TurnAction = "complete"
)
