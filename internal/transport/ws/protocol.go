package ws

// Frame types sent by clients.
const (
	TypeHello = "hello"
	TypeChat  = "chat"
)

// Frame types sent by the server.
const (
	TypeHelloAck     = "hello_ack"
	TypeChatResponse = "chat_response"
	TypeError        = "error"
)

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeInternalError  = "internal_error"
)

// BaseMessage contains common fields for all frames.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage binds the socket to a session.
type HelloMessage struct {
	BaseMessage
	ClientMeta map[string]string `json:"client_meta,omitempty"`
}

// HelloAckMessage confirms the bound session.
type HelloAckMessage struct {
	BaseMessage
}

// ChatMessage carries one visitor message.
type ChatMessage struct {
	BaseMessage
	Message string `json:"message"`
}

// ChatResponseMessage carries the assistant reply for a turn.
type ChatResponseMessage struct {
	BaseMessage
	Response string `json:"response"`
}

// ErrorMessage is sent when a frame cannot be served.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}
