package domain

import "time"

// ChatRequest is the inbound body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatResponse is returned for every handled turn, including fallbacks.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// SessionResponse is returned by POST /chat/session.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
}

// HistoryMessage is a message as replayed to clients.
type HistoryMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is returned by GET /chat/sessions/:session_id/messages.
type HistoryResponse struct {
	SessionID string           `json:"sessionId"`
	Messages  []HistoryMessage `json:"messages"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHistoryResponse converts stored messages for replay.
func NewHistoryResponse(sessionID string, messages []Message) HistoryResponse {
	out := make([]HistoryMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, HistoryMessage{Role: m.Role, Content: m.Content, Timestamp: m.CreatedAt})
	}
	return HistoryResponse{SessionID: sessionID, Messages: out}
}
